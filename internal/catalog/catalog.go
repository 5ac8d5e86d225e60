// Package catalog parses question files used to seed the question catalog.
package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
	"weekly-quiz-service/internal/domain"
)

// Entry is one question as written in an import file.
type Entry struct {
	ID      string   `yaml:"id" validate:"required"`
	Prompt  string   `yaml:"prompt" validate:"required"`
	Options []string `yaml:"options" validate:"len=4,dive,required"`
	Correct string   `yaml:"correct" validate:"required,oneof=A B C D a b c d"`
	Active  *bool    `yaml:"active"`
}

// File is the YAML layout: a top-level questions list.
type File struct {
	Questions []Entry `yaml:"questions" validate:"required,min=1,dive"`
}

var validate = validator.New()

// xlsxColumns are the required header cells of a spreadsheet import.
var xlsxColumns = []string{"id", "prompt", "option_a", "option_b", "option_c", "option_d", "correct"}

// Load picks the parser from the file extension.
func Load(path string) ([]domain.Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(f)
	case ".xlsx":
		return LoadXLSX(f)
	}
	return nil, fmt.Errorf("unsupported question file %q", path)
}

// LoadYAML reads and validates a YAML question file.
func LoadYAML(r io.Reader) ([]domain.Question, error) {
	var file File
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	return toQuestions(file)
}

// LoadXLSX reads the first sheet of a spreadsheet. Row 1 is the header; the
// optional "active" column accepts true/false, yes/no or 1/0.
func LoadXLSX(r io.Reader) ([]domain.Question, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open excel: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("excel sheet is empty")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, errors.New("no data rows found")
	}

	header := map[string]int{}
	for i, h := range rows[0] {
		header[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range xlsxColumns {
		if _, ok := header[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	var file File
	for _, row := range rows[1:] {
		get := func(key string) string {
			idx, ok := header[key]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}
		if get("id") == "" && get("prompt") == "" {
			continue
		}
		entry := Entry{
			ID:      get("id"),
			Prompt:  get("prompt"),
			Options: []string{get("option_a"), get("option_b"), get("option_c"), get("option_d")},
			Correct: get("correct"),
		}
		if raw := strings.ToLower(get("active")); raw != "" {
			active := raw == "true" || raw == "yes" || raw == "1"
			entry.Active = &active
		}
		file.Questions = append(file.Questions, entry)
	}
	return toQuestions(file)
}

func toQuestions(file File) ([]domain.Question, error) {
	if err := validate.Struct(file); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, err
		}
		messages := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			messages = append(messages, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidQuestion, strings.Join(messages, "; "))
	}

	seen := make(map[string]struct{}, len(file.Questions))
	questions := make([]domain.Question, 0, len(file.Questions))
	for _, e := range file.Questions {
		id := strings.TrimSpace(e.ID)
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", domain.ErrInvalidQuestion, id)
		}
		seen[id] = struct{}{}

		correct, err := domain.ParseChoice(e.Correct)
		if err != nil {
			return nil, fmt.Errorf("question %q: %w", id, err)
		}
		q := domain.Question{
			ID:      id,
			Prompt:  strings.TrimSpace(e.Prompt),
			Correct: correct,
			Active:  e.Active == nil || *e.Active,
		}
		copy(q.Options[:], e.Options)
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("question %q: %w", id, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}
