package logging

import (
	"go.uber.org/zap"
)

// Logger é no-op até InitLogger ser chamado, assim os pacotes internos
// podem logar mesmo quando usados como biblioteca.
var Logger = zap.NewNop().Sugar()

func InitLogger(debug bool) error {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	cfg.Encoding = "console"
	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	Logger = logger.Sugar()
	return nil
}

// Sync descarrega o buffer do logger; erros de sync em stderr são ignorados.
func Sync() {
	_ = Logger.Sync()
}
