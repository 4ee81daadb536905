package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/model"
)

type catalogFile struct {
	Masterclasses []masterclassEntry `yaml:"masterclasses"`
}

type masterclassEntry struct {
	ID          string         `yaml:"id"`
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	SpeakerName string         `yaml:"speaker_name"`
	Price       string         `yaml:"price"`
	Currency    string         `yaml:"currency"`
	StartsAt    string         `yaml:"starts_at"`
	Sessions    []sessionEntry `yaml:"sessions"`
}

type sessionEntry struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Source      string `yaml:"source"`
	ScheduledAt string `yaml:"scheduled_at"`
	JoinURL     string `yaml:"join_url"`
}

func loadCatalogFromYAML(path string) ([]model.Masterclass, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal catalog yaml: %w", err)
	}

	masterclasses := make([]model.Masterclass, 0, len(file.Masterclasses))
	for i, entry := range file.Masterclasses {
		if entry.ID == "" {
			return nil, fmt.Errorf("masterclasses[%d]: id is required", i)
		}
		if entry.Title == "" {
			return nil, fmt.Errorf("masterclasses[%d]: title is required", i)
		}

		price := decimal.Zero
		if strings.TrimSpace(entry.Price) != "" {
			price, err = decimal.NewFromString(strings.TrimSpace(entry.Price))
			if err != nil {
				return nil, fmt.Errorf("masterclasses[%d]: invalid price %q: %w", i, entry.Price, err)
			}
		}

		currency := strings.ToUpper(strings.TrimSpace(entry.Currency))
		if currency == "" {
			currency = "INR"
		}

		startsAt, err := parseOptionalTime(entry.StartsAt)
		if err != nil {
			return nil, fmt.Errorf("masterclasses[%d]: invalid starts_at: %w", i, err)
		}

		mc := model.Masterclass{
			ID:          entry.ID,
			Title:       entry.Title,
			Description: strings.TrimSpace(entry.Description),
			SpeakerName: entry.SpeakerName,
			Price:       price,
			Currency:    currency,
			StartsAt:    startsAt,
		}

		for j, s := range entry.Sessions {
			if s.ID == "" {
				return nil, fmt.Errorf("masterclasses[%d].sessions[%d]: id is required", i, j)
			}

			source := strings.ToLower(strings.TrimSpace(s.Source))
			if source == "" {
				source = model.SessionSourceYouTube
			}
			if source != model.SessionSourceZoom && source != model.SessionSourceYouTube {
				return nil, fmt.Errorf("masterclasses[%d].sessions[%d]: unknown source %q", i, j, s.Source)
			}

			scheduledAt, err := parseOptionalTime(s.ScheduledAt)
			if err != nil {
				return nil, fmt.Errorf("masterclasses[%d].sessions[%d]: invalid scheduled_at: %w", i, j, err)
			}
			if source == model.SessionSourceZoom && scheduledAt == nil {
				return nil, fmt.Errorf("masterclasses[%d].sessions[%d]: zoom sessions need scheduled_at", i, j)
			}

			mc.Sessions = append(mc.Sessions, model.MasterclassSession{
				ID:            s.ID,
				MasterclassID: entry.ID,
				Title:         s.Title,
				Source:        source,
				ScheduledAt:   scheduledAt,
				JoinURL:       s.JoinURL,
				Position:      j,
			})
		}

		masterclasses = append(masterclasses, mc)
	}

	return masterclasses, nil
}

func parseOptionalTime(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}
