// Package detector implements the danger state machine.
//
// A Machine consumes motion samples and clock ticks and moves between the
// four movement.DangerState variants:
//
//	Safe         --shock-------------------------> PreDangerAcc
//	PreDangerAcc --shock-------------------------> PreDanger
//	PreDanger    --shock-------------------------> PreDanger (re-anchored)
//	PreDanger*   --still for PreDangerTimeout----> Danger
//	PreDanger*   --moving for RecoveryHold-------> Safe (on a sample only)
//	Danger       --Reset-------------------------> Safe
//
// Stillness is judged on the rolling average of magnitudes received after the
// most recent shock and within the last PreDangerTimeout. Ticks never clear a
// pending danger: silence after movement keeps the evaluation open until the
// readings age out of the window. The machine is not
// safe for concurrent use; the engine owns it from a single goroutine.
package detector
