// Package clock abstracts the time source used by the danger engine.
//
// Production code uses Real, which delegates to package time. Tests use Virtual,
// a manually advanced clock whose timers fire only when Advance moves the clock
// past their deadline, so timeout-driven transitions run without real sleeps.
package clock
