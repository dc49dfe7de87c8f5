// Package logging builds one independently-levelable zap.Logger per
// functional category (spec.md 6), so a config change can turn up
// decision-process tracing without flooding the log with circuit
// chatter, or vice versa.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Categories is every logging category the router recognizes.
var Categories = []string{
	Circuit, EthInit, P2PInit, Adjacency, Decision, Update, Forward, Config,
}

const (
	Circuit   = "circuit"
	EthInit   = "ethinit"
	P2PInit   = "p2pinit"
	Adjacency = "adjacency"
	Decision  = "decision"
	Update    = "update"
	Forward   = "forward"
	Config    = "config"
)

// Factory vends per-category loggers whose levels can be changed at
// runtime independently of one another.
type Factory struct {
	atoms   map[string]zap.AtomicLevel
	loggers map[string]*zap.Logger
}

// New builds a Factory, applying defaults (category name to zap level
// name, e.g. "debug", "info", "warn") where given; unmentioned
// categories default to info.
func New(defaults map[string]string) (*Factory, error) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encCfg)
	sink := zapcore.AddSync(os.Stdout)

	f := &Factory{atoms: make(map[string]zap.AtomicLevel), loggers: make(map[string]*zap.Logger)}
	for _, cat := range Categories {
		level := zap.NewAtomicLevel()
		if s, ok := defaults[cat]; ok {
			var lvl zapcore.Level
			if err := lvl.UnmarshalText([]byte(s)); err != nil {
				return nil, err
			}
			level.SetLevel(lvl)
		}
		core := zapcore.NewCore(encoder, sink, level)
		f.atoms[cat] = level
		f.loggers[cat] = zap.New(core).Named(cat)
	}
	return f, nil
}

// For returns the logger for category, or a no-op logger if category is
// unrecognized.
func (f *Factory) For(category string) *zap.Logger {
	if l, ok := f.loggers[category]; ok {
		return l
	}
	return zap.NewNop()
}

// SetLevel changes category's level at runtime, e.g. in response to a
// configuration reload.
func (f *Factory) SetLevel(category, levelName string) error {
	a, ok := f.atoms[category]
	if !ok {
		return nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(levelName)); err != nil {
		return err
	}
	a.SetLevel(lvl)
	return nil
}

// ApplyLevels updates every category named in levels, leaving
// unmentioned categories untouched.
func (f *Factory) ApplyLevels(levels map[string]string) error {
	for cat, lvl := range levels {
		if err := f.SetLevel(cat, lvl); err != nil {
			return err
		}
	}
	return nil
}
