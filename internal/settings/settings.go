// Package settings загружает справочники задач (сроки, категории, статусы) и локаль.
package settings

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Option - пара (подпись, значение) для выпадающих списков
type Option struct {
	Label string `yaml:"label"`
	Value string `yaml:"value"`
}

type Settings struct {
	locale           language.Tag
	calendarWithTime bool
	statuses         []string
	dueDates         []Option
	categories       map[string]string
}

// файл настроек; отсутствующие ключи берутся из defaults.yaml
type fileSettings struct {
	Locale           *string           `yaml:"locale"`
	CalendarWithTime *bool             `yaml:"task_calendar_with_time"`
	TaskStatuses     []string          `yaml:"task_statuses"`
	TaskDueDate      []Option          `yaml:"task_due_date"`
	TaskCategory     map[string]string `yaml:"task_category"`
}

// Default возвращает встроенные настройки
func Default() *Settings {
	s, err := parse(defaultsYAML, &Settings{})
	if err != nil {
		panic(fmt.Sprintf("settings: invalid embedded defaults: %v", err))
	}
	return s
}

// Load читает YAML-файл поверх встроенных настроек. Пустой путь - только встроенные.
func Load(path string) (*Settings, error) {
	s := Default()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}
	s, err = parse(data, s)
	if err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return s, nil
}

func parse(data []byte, base *Settings) (*Settings, error) {
	var f fileSettings
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	s := *base
	if f.Locale != nil {
		tag, err := language.Parse(*f.Locale)
		if err != nil {
			return nil, fmt.Errorf("invalid locale %q: %w", *f.Locale, err)
		}
		s.locale = tag
	}
	if f.CalendarWithTime != nil {
		s.calendarWithTime = *f.CalendarWithTime
	}
	if f.TaskStatuses != nil {
		s.statuses = f.TaskStatuses
	}
	if f.TaskDueDate != nil {
		for _, opt := range f.TaskDueDate {
			if opt.Value == "" {
				return nil, fmt.Errorf("task_due_date: option %q has no value", opt.Label)
			}
		}
		s.dueDates = f.TaskDueDate
	}
	if f.TaskCategory != nil {
		s.categories = f.TaskCategory
	}
	return &s, nil
}

func (s *Settings) TaskDueDate() []Option {
	out := make([]Option, len(s.dueDates))
	copy(out, s.dueDates)
	return out
}

func (s *Settings) TaskCategory() map[string]string {
	out := make(map[string]string, len(s.categories))
	for k, v := range s.categories {
		out[k] = v
	}
	return out
}

// DueDateValues - допустимые значения бакета
func (s *Settings) DueDateValues() []string {
	out := make([]string, len(s.dueDates))
	for i, opt := range s.dueDates {
		out[i] = opt.Value
	}
	return out
}

func (s *Settings) TaskStatuses() []string {
	out := make([]string, len(s.statuses))
	copy(out, s.statuses)
	return out
}

func (s *Settings) Locale() language.Tag {
	return s.locale
}

func (s *Settings) CalendarWithTime() bool {
	return s.calendarWithTime
}

// Printer форматирует числа по локали
func (s *Settings) Printer() *message.Printer {
	return message.NewPrinter(s.locale)
}

// SortedCategories - категории, отсортированные по подписи
func SortedCategories(categories map[string]string) []Option {
	out := make([]Option, 0, len(categories))
	for k, v := range categories {
		out = append(out, Option{Label: v, Value: k})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].Value < out[j].Value
	})
	return out
}
