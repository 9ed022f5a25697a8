package escalation

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/smukkama/symptom-intel/internal/notification"
)

//go:embed workers.yaml
var defaultWorkers []byte

// Worker is a health worker reachable for escalations
type Worker struct {
	Name      string   `yaml:"name" json:"name"`
	Phone     string   `yaml:"phone" json:"phone"`
	Area      string   `yaml:"area" json:"area"`
	Languages []string `yaml:"languages" json:"languages"`
}

func (w *Worker) speaks(language string) bool {
	for _, l := range w.Languages {
		if l == language {
			return true
		}
	}
	return false
}

// Directory is the ordered list of health workers
type Directory struct {
	Workers []Worker `yaml:"workers"`
}

// LoadDirectory reads a worker directory from path, or the embedded default
// when path is empty.
func LoadDirectory(path string) (*Directory, error) {
	data := defaultWorkers
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("failed to read worker directory %s: %w", path, err)
		}
	}
	return ParseDirectory(data)
}

// ParseDirectory decodes a YAML worker directory
func ParseDirectory(data []byte) (*Directory, error) {
	var d Directory
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse worker directory: %w", err)
	}
	for i := range d.Workers {
		w := &d.Workers[i]
		if strings.TrimSpace(w.Phone) == "" {
			return nil, fmt.Errorf("worker %q has no phone", w.Name)
		}
		for j, l := range w.Languages {
			w.Languages[j] = notification.NormalizeLanguage(l)
		}
	}
	return &d, nil
}

// Eligible picks up to limit workers for a report in language: workers who
// speak it first, then english speakers, directory order within each group.
func (d *Directory) Eligible(language string, limit int) []Worker {
	language = notification.NormalizeLanguage(language)

	var primary, fallback []Worker
	for _, w := range d.Workers {
		switch {
		case w.speaks(language):
			primary = append(primary, w)
		case w.speaks(notification.English):
			fallback = append(fallback, w)
		}
	}
	out := append(primary, fallback...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
