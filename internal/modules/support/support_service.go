package support

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"parcel-courier/internal/models"
	"parcel-courier/internal/storage"
	"parcel-courier/internal/store"
	"parcel-courier/pkg/utils"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

const notifyTimeout = 30 * time.Second

// Notifier tells the admin about a new message.
type Notifier interface {
	NotifySupportMessage(ctx context.Context, msg models.SupportMessage) error
}

// ServiceInterface defines the contract for the customer-support service.
type ServiceInterface interface {
	FetchAll(ctx context.Context) ([]models.SupportMessage, error)
	Create(ctx context.Context, req models.SupportMessageRequest, attachment *models.Upload) (*models.SupportMessage, error)
	State() store.Snapshot[models.SupportMessage]
}

type Service struct {
	repo     RepositoryInterface
	bucket   storage.Bucket
	notifier Notifier
	policy   *bluemonday.Policy
	state    *store.SupportMessages
	logger   *zap.Logger
	now      func() time.Time
	pending  sync.WaitGroup
}

// NewService creates the support service. notifier may be nil.
func NewService(repo RepositoryInterface, bucket storage.Bucket, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		bucket:   bucket,
		notifier: notifier,
		policy:   bluemonday.StripTagsPolicy(),
		state:    store.NewSupportMessages(),
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) Name() string { return "customer_support" }

func (s *Service) Refresh(ctx context.Context) error {
	_, err := s.FetchAll(ctx)
	return err
}

func (s *Service) State() store.Snapshot[models.SupportMessage] {
	return s.state.Snapshot()
}

func (s *Service) FetchAll(ctx context.Context) ([]models.SupportMessage, error) {
	s.state.Begin()
	list, err := s.repo.List(ctx)
	if err != nil {
		s.state.Reject(err)
		s.logger.Error("Failed to fetch support messages", zap.Error(err))
		return nil, fmt.Errorf("service.FetchAll: %w", err)
	}
	s.state.Replace(list)
	return list, nil
}

// plain strips markup from user input and keeps the text.
func (s *Service) plain(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(v)))
}

// Create stores a contact-form message. A non-empty attachment is uploaded to
// the support bucket first; an upload failure stops the insert.
func (s *Service) Create(ctx context.Context, req models.SupportMessageRequest, attachment *models.Upload) (*models.SupportMessage, error) {
	req.Name = s.plain(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Message = s.plain(req.Message)
	if err := utils.GetValidator().Validate(req); err != nil {
		return nil, err
	}

	s.state.Begin()
	msg := &models.SupportMessage{
		ID:      uuid.NewString(),
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
	}

	if attachment != nil && attachment.Size > 0 && attachment.Body != nil {
		url, err := storage.Put(ctx, s.bucket, *attachment, s.now())
		if err != nil {
			s.state.Reject(err)
			s.logger.Error("Failed to upload support attachment", zap.String("filename", attachment.Filename), zap.Error(err))
			return nil, fmt.Errorf("service.Create: %w", err)
		}
		msg.AttachmentURL = &url
	}

	if err := s.repo.Create(ctx, msg); err != nil {
		s.state.Reject(err)
		s.logger.Error("Failed to store support message", zap.Error(err))
		return nil, fmt.Errorf("service.Create: %w", err)
	}
	s.state.Put(*msg)
	s.state.Resolve()

	s.notify(*msg)
	return msg, nil
}

// notify sends the admin notification in the background. Failures are logged only.
func (s *Service) notify(msg models.SupportMessage) {
	if s.notifier == nil {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.NotifySupportMessage(ctx, msg); err != nil {
			s.logger.Warn("Failed to notify admin of support message", zap.String("support_id", msg.ID), zap.Error(err))
		}
	}()
}

// Wait blocks until background notifications have finished.
func (s *Service) Wait() {
	s.pending.Wait()
}
