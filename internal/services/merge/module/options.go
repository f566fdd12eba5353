package module

import (
	"vqamerge/internal/platform/config"
	"vqamerge/internal/services/merge/domain"
)

// Options holds configuration settings for the merge module
type Options struct {
	Annotations     string
	Questions       string
	AnnotationsPath string
	QuestionsPath   string
	ProgressEvery   int
}

// FromConfig extracts Options from the given config.Conf. Input files have no default;
// the binaries require them
func FromConfig(cfg config.Conf) Options {
	mc := cfg.Prefix("CORE_MERGE_")
	return Options{
		Annotations:     mc.MayString("ANNOTATIONS", ""),
		Questions:       mc.MayString("QUESTIONS", ""),
		AnnotationsPath: mc.MayString("ANNOTATIONS_PATH", "annotations"),
		QuestionsPath:   mc.MayString("QUESTIONS_PATH", "questions"),
		ProgressEvery:   mc.MayNonNegInt("PROGRESS_EVERY", 100000),
	}
}

// Input is the run input described by o
func (o Options) Input() domain.Input {
	return domain.Input{
		Annotations: domain.Source{File: o.Annotations, Path: o.AnnotationsPath},
		Questions:   domain.Source{File: o.Questions, Path: o.QuestionsPath},
	}
}
