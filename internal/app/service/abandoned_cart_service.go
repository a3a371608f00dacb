package service

import (
	"context"
	"strings"
	"time"

	"github.com/thriftshop/storefront/internal/app/model"
	"github.com/thriftshop/storefront/internal/app/repository"
	"github.com/thriftshop/storefront/pkg/logger"
	"github.com/thriftshop/storefront/pkg/mailer"
)

// ReminderStage is one step of the abandoned cart mail sequence.
type ReminderStage struct {
	Stage int
	Idle  time.Duration
}

var DefaultReminderStages = []ReminderStage{
	{Stage: model.ReminderOneHour, Idle: time.Hour},
	{Stage: model.ReminderOneDay, Idle: 24 * time.Hour},
	{Stage: model.ReminderThreeDays, Idle: 72 * time.Hour},
}

type ReminderResult struct {
	Sent    int
	Skipped int
	Failed  int
}

type AbandonedCartService interface {
	// SendReminders mails every idle cart its next reminder. A cart moves at
	// most one stage per run.
	SendReminders(ctx context.Context) (ReminderResult, error)
}

type abandonedCartService struct {
	cartRepo      repository.CartRepository
	userRepo      repository.UserRepository
	mail          mailer.Mailer
	stages        []ReminderStage
	storefrontURL string
	currency      string
	now           func() time.Time
}

func NewAbandonedCartService(
	cartRepo repository.CartRepository,
	userRepo repository.UserRepository,
	mail mailer.Mailer,
	storefrontURL, currency string,
) AbandonedCartService {
	if mail == nil {
		mail = mailer.LogMailer{}
	}
	return &abandonedCartService{
		cartRepo:      cartRepo,
		userRepo:      userRepo,
		mail:          mail,
		stages:        DefaultReminderStages,
		storefrontURL: strings.TrimRight(storefrontURL, "/"),
		currency:      currency,
		now:           time.Now,
	}
}

func (s *abandonedCartService) SendReminders(ctx context.Context) (ReminderResult, error) {
	var result ReminderResult
	handled := make(map[uint]bool)
	now := s.now()

	for _, stage := range s.stages {
		userIDs, err := s.cartRepo.FindIdleUserIDs(now.Add(-stage.Idle), stage.Stage)
		if err != nil {
			logger.Error("Failed to find idle carts", err, map[string]interface{}{
				"stage": stage.Stage,
			})
			return result, err
		}

		for _, userID := range userIDs {
			if handled[userID] {
				continue
			}
			handled[userID] = true
			if err := ctx.Err(); err != nil {
				return result, err
			}

			switch sent, err := s.remind(ctx, userID, stage.Stage); {
			case err != nil:
				result.Failed++
				logger.Warn("Abandoned cart reminder failed", map[string]interface{}{
					"user_id": userID,
					"stage":   stage.Stage,
					"error":   err.Error(),
				})
			case sent:
				result.Sent++
			default:
				result.Skipped++
			}
		}
	}

	logger.Info("Abandoned cart reminders processed", map[string]interface{}{
		"sent":    result.Sent,
		"skipped": result.Skipped,
		"failed":  result.Failed,
	})
	return result, nil
}

// remind mails one user. Carts with nothing left to buy advance silently.
func (s *abandonedCartService) remind(ctx context.Context, userID uint, stage int) (bool, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return false, err
	}
	items, err := s.cartRepo.FindByUserID(userID)
	if err != nil {
		return false, err
	}

	data := mailer.CartReminder{
		Name:     user.Name,
		CartURL:  s.storefrontURL + "/cart",
		Currency: s.currency,
	}
	total := 0.0
	for _, it := range items {
		if !it.Product.IsAvailable {
			continue
		}
		data.Lines = append(data.Lines, mailer.Line{Title: it.Product.Title, Quantity: it.Quantity, Price: it.Product.Price})
		total += it.Product.Price * float64(it.Quantity)
	}
	data.Total = roundCents(total)

	if len(data.Lines) > 0 {
		msg, err := mailer.CartReminderMessage(user.Email, stage, data)
		if err != nil {
			return false, err
		}
		if err := s.mail.Send(ctx, msg); err != nil {
			return false, err
		}
	}

	if err := s.cartRepo.SetReminderStage(userID, stage); err != nil {
		return false, err
	}
	return len(data.Lines) > 0, nil
}
