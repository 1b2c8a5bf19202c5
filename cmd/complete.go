package cmd

import (
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"github.com/etnz/fins/docs"
)

// Completion returns the shell completion of the fins command line.
func Completion() *complete.Command {
	variables := complete.PredictFunc(predictVariables)
	return &complete.Command{
		Flags: map[string]complete.Predictor{
			"config":      predict.Files("*.yaml"),
			"storage-dir": predict.Dirs("*"),
			"log-level":   predict.Set{"debug", "info", "warn", "error", "off"},
			"json":        predict.Nothing,
			"offline":     predict.Nothing,
		},
		Sub: map[string]*complete.Command{
			"run":     {},
			"exec":    {Flags: map[string]complete.Predictor{"f": predict.Files("*"), "k": predict.Nothing}},
			"repl":    {},
			"serve":   {Flags: map[string]complete.Predictor{"addr": predict.Something, "dev": predict.Nothing}},
			"ls":      {Args: variables},
			"rm":      {Args: variables},
			"columns": {},
			"search":  {Flags: map[string]complete.Predictor{"basket": predict.Nothing}},
			"topic":   {Args: complete.PredictFunc(predictTopics)},
			"assist":  {},
		},
	}
}

// predictVariables completes stored /variables.
func predictVariables(prefix string) []string {
	cfg, err := loadConfig()
	if err != nil {
		return nil
	}
	if prefix == "" {
		prefix = "/"
	}
	paths, err := openStorage(cfg.StorageDir).List(prefix)
	if err != nil {
		return nil
	}
	return paths
}

func predictTopics(string) []string {
	topics, _ := docs.Topics()
	return topics
}
