package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shivam7053/raga-vachika/pkg/mail"
	domainErrors "github.com/shivam7053/raga-vachika/services/payment/internal/domain/errors"
	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/model"
	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/repository"
)

// UpdateNotifierConfig controls masterclass update emails
type UpdateNotifierConfig struct {
	// Pacing is the pause between two consecutive sends
	Pacing  time.Duration
	SiteURL string
}

// UpdateSummary reports one update notification run
type UpdateSummary struct {
	MasterclassID string `json:"masterclassId"`
	NewSessions   int    `json:"newSessions,omitempty"`
	Recipients    int    `json:"recipients"`
	Sent          int    `json:"sent"`
	Skipped       int    `json:"skipped"`
	Failed        int    `json:"failed"`
}

// UpdateNotifier emails the enrolled users of a masterclass when its content changes
type UpdateNotifier struct {
	masterclasses repository.MasterclassRepository
	enrollments   repository.EnrollmentRepository
	users         repository.UserRepository
	mailer        Mailer
	config        UpdateNotifierConfig
	logger        *zap.Logger
	sleep         func(ctx context.Context, d time.Duration) error
}

// NewUpdateNotifier creates a new update notifier
func NewUpdateNotifier(repos *repository.Repositories, mailer Mailer, config UpdateNotifierConfig, logger *zap.Logger) *UpdateNotifier {
	return &UpdateNotifier{
		masterclasses: repos.Masterclass,
		enrollments:   repos.Enrollment,
		users:         repos.Users,
		mailer:        mailer,
		config:        config,
		logger:        logger,
		sleep:         sleepContext,
	}
}

// NotifyUpdate sends a general update email about one masterclass to every enrolled user
func (n *UpdateNotifier) NotifyUpdate(ctx context.Context, masterclassID string) (*UpdateSummary, error) {
	if strings.TrimSpace(masterclassID) == "" {
		return nil, domainErrors.NewRequiredFieldError("masterclassId")
	}
	mc, err := n.masterclasses.GetByID(ctx, masterclassID)
	if err != nil {
		return nil, err
	}

	return n.broadcast(ctx, mc, 0, func(profile *model.UserProfile) (mail.Message, error) {
		return masterclassUpdateEmail(profile, mc, n.config.SiteURL)
	})
}

// NotifyNewSessions announces sessions that were added to mc. Nothing is sent when sessions is empty.
func (n *UpdateNotifier) NotifyNewSessions(ctx context.Context, mc *model.Masterclass, sessions []model.MasterclassSession) (*UpdateSummary, error) {
	if len(sessions) == 0 {
		return &UpdateSummary{MasterclassID: mc.ID}, nil
	}

	return n.broadcast(ctx, mc, len(sessions), func(profile *model.UserProfile) (mail.Message, error) {
		return newContentEmail(profile, mc, sessions, n.config.SiteURL)
	})
}

// broadcast sends one rendered message per enrolled user with an email address.
// Only context cancellation and repository errors are returned; per-user failures are counted.
func (n *UpdateNotifier) broadcast(ctx context.Context, mc *model.Masterclass, newSessions int, render func(*model.UserProfile) (mail.Message, error)) (*UpdateSummary, error) {
	summary := &UpdateSummary{MasterclassID: mc.ID, NewSessions: newSessions}
	if n.mailer == nil {
		n.logger.Warn("Update notification skipped, email transport disabled",
			zap.String("masterclass_id", mc.ID))
		return summary, nil
	}

	userIDs, err := n.enrollments.ListUserIDs(ctx, mc.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrolled users: %w", err)
	}
	if len(userIDs) == 0 {
		return summary, nil
	}

	profiles, err := n.users.GetByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load user profiles: %w", err)
	}
	summary.Recipients = len(profiles)

	for i := range profiles {
		profile := &profiles[i]
		if profile.Email == "" {
			summary.Skipped++
			continue
		}

		if summary.Sent+summary.Failed > 0 && n.config.Pacing > 0 {
			if err := n.sleep(ctx, n.config.Pacing); err != nil {
				return summary, err
			}
		}

		msg, err := render(profile)
		if err == nil {
			err = n.mailer.Send(ctx, msg)
		}
		if err != nil {
			n.logger.Error("Failed to send masterclass update",
				zap.String("masterclass_id", mc.ID),
				zap.String("user_id", profile.ID),
				zap.Error(err))
			summary.Failed++
			continue
		}
		summary.Sent++
	}

	n.logger.Info("Masterclass update notification completed",
		zap.String("masterclass_id", mc.ID),
		zap.Int("new_sessions", summary.NewSessions),
		zap.Int("sent", summary.Sent),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed))

	return summary, nil
}

// addedSessions returns the sessions of next whose ids were not in previous
func addedSessions(previous, next []model.MasterclassSession) []model.MasterclassSession {
	known := make(map[string]struct{}, len(previous))
	for _, s := range previous {
		known[s.ID] = struct{}{}
	}
	var added []model.MasterclassSession
	for _, s := range next {
		if _, ok := known[s.ID]; !ok {
			added = append(added, s)
		}
	}
	return added
}
