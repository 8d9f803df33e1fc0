package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LevelOverride filters entries by its own level instead of the level of the
// core it wraps. Cores derived through With share that level, so SetLevel
// applies to every logger built from one override. The engine runs behind an
// override so per-sample debug output does not depend on the global level.
type LevelOverride struct {
	zapcore.Core

	level zap.AtomicLevel
}

// NewLevelOverride wraps core with an adjustable level starting at lvl.
func NewLevelOverride(core zapcore.Core, lvl zapcore.Level) *LevelOverride {
	return &LevelOverride{Core: core, level: zap.NewAtomicLevelAt(lvl)}
}

// Level returns the current level of the override.
func (o *LevelOverride) Level() zapcore.Level {
	return o.level.Level()
}

// SetLevel changes the level of the override and of every core derived from it.
func (o *LevelOverride) SetLevel(lvl zapcore.Level) {
	o.level.SetLevel(lvl)
}

// Enabled implements zapcore.LevelEnabler.
func (o *LevelOverride) Enabled(lvl zapcore.Level) bool {
	return o.level.Enabled(lvl)
}

// Check implements zapcore.Core.
//
//nolint:gocritic // zapcore.Core requires ent by value.
func (o *LevelOverride) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !o.Enabled(ent.Level) {
		return ce
	}

	return ce.AddCore(ent, o)
}

// With implements zapcore.Core.
//
//nolint:ireturn // zapcore.Core is the required return type.
func (o *LevelOverride) With(fields []zapcore.Field) zapcore.Core {
	return &LevelOverride{Core: o.Core.With(fields), level: o.level}
}

// Leveled derives a logger from l behind a new override starting at lvl and
// returns both, so the caller may adjust the level later.
func Leveled(l *zap.SugaredLogger, lvl zapcore.Level) (*zap.SugaredLogger, *LevelOverride) {
	var override *LevelOverride

	derived := l.Desugar().WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		override = NewLevelOverride(core, lvl)

		return override
	}))

	return derived.Sugar(), override
}
