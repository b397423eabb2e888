package lessongen

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed mock_lesson.yaml
var mockLessonYAML []byte

// fixture is the YAML form of a lesson. Chat holds canned answers keyed by
// a word to look for in the question, plus "default".
type fixture struct {
	Title   string            `yaml:"title"`
	Subject string            `yaml:"subject"`
	Steps   []rawStep         `yaml:"steps"`
	Chat    map[string]Answer `yaml:"chat"`
}

func parseFixture(data []byte) (*fixture, error) {
	var f fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse lesson fixture: %w", err)
	}
	if f.Title == "" || len(f.Steps) == 0 {
		return nil, fmt.Errorf("lesson fixture needs a title and at least one step")
	}
	for i := range f.Steps {
		if f.Steps[i].Number == 0 {
			f.Steps[i].Number = i + 1
		}
	}
	return &f, nil
}

func (f *fixture) lesson() *Lesson {
	l := &Lesson{Title: f.Title, Subject: f.Subject}
	for _, rs := range f.Steps {
		l.Steps = append(l.Steps, buildStep(rs))
	}
	return l
}

// LoadFixture reads a lesson from a YAML file.
func LoadFixture(path string) (*Lesson, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lesson fixture: %w", err)
	}
	f, err := parseFixture(data)
	if err != nil {
		return nil, err
	}
	return f.lesson(), nil
}

// builtin is parsed once; the embedded file is known to be valid.
var builtin = func() *fixture {
	f, err := parseFixture(mockLessonYAML)
	if err != nil {
		panic(err)
	}
	return f
}()

// MockLesson returns the built-in lesson, freshly built so event ids are
// unique per call.
func MockLesson() *Lesson {
	l := builtin.lesson()
	l.Fallback = true
	return l
}

// MockAnswer picks a canned answer by keyword.
func MockAnswer(question string) *Answer {
	q := strings.ToLower(question)
	for _, key := range []string{"why", "how", "example"} {
		if strings.Contains(q, key) {
			a := builtin.Chat[key]
			return &a
		}
	}
	a := builtin.Chat["default"]
	return &a
}
