// Package starter provisions the managed spot instance on request.
package starter

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/younsl/spoton/internal/models"
	awsclient "github.com/younsl/spoton/pkg/aws"
	"github.com/younsl/spoton/pkg/janitor"
	"github.com/younsl/spoton/pkg/userdata"
)

var (
	// ErrUnauthorized is returned when the passcode does not match
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInstanceExists is returned when a managed instance already exists
	ErrInstanceExists = errors.New("instance already exists")
	// ErrNoPlacement is returned when the placer yields no candidate
	ErrNoPlacement = errors.New("no placement candidate")
)

// PasscodeHeader carries the shared secret on every request
const PasscodeHeader = "passcode"

// Response messages
const (
	MessageUnauthorized = "Unauthorized"
	MessageExists       = "Instance already exists"
	MessageCreated      = "Instance created"
	MessageCreateFailed = "Instance creation failed"
)

// ExistingCheck selects which managed instances block a new launch
type ExistingCheck string

const (
	// ExistingAny blocks on a managed instance in any state
	ExistingAny ExistingCheck = "any"
	// ExistingRunning blocks only on a running managed instance
	ExistingRunning ExistingCheck = "running"
)

// Cloud is the EC2 surface the handler needs
type Cloud interface {
	ListInstances(ctx context.Context, states ...string) ([]models.InstanceInfo, error)
	ListSnapshots(ctx context.Context) ([]models.SnapshotInfo, error)
	RunSpotInstance(ctx context.Context, in awsclient.LaunchInput) (*models.LaunchedInstance, error)
}

// Config holds the launch template and policy of the handler
type Config struct {
	Passcode             string
	Existing             ExistingCheck
	ImageID              string
	KeyName              string
	SecurityGroupIDs     []string
	SpotType             string
	InterruptionBehavior string
	DeviceName           string
	VolumeSize           int
	VolumeType           string
	Watchdog             userdata.Options
}

// Body is the JSON payload of every response
type Body struct {
	Message  string                   `json:"message"`
	Instance *models.LaunchedInstance `json:"instance,omitempty"`
	Error    string                   `json:"error,omitempty"`
}

// Response is a status code and body, independent of the transport
type Response struct {
	StatusCode int
	Body       Body
}

// Handler authorizes a request and launches at most one spot instance
type Handler struct {
	cloud  Cloud
	placer Placer
	cfg    Config
}

// New creates a Handler
func New(cloud Cloud, placer Placer, cfg Config) *Handler {
	if cfg.Existing == "" {
		cfg.Existing = ExistingRunning
	}
	if cfg.Watchdog == (userdata.Options{}) {
		cfg.Watchdog = userdata.DefaultOptions()
	}
	return &Handler{
		cloud:  cloud,
		placer: placer,
		cfg:    cfg,
	}
}

// Handle runs Start and maps the outcome onto a response
func (h *Handler) Handle(ctx context.Context, passcode string) Response {
	instance, err := h.Start(ctx, passcode)
	switch {
	case err == nil:
		return Response{StatusCode: http.StatusOK, Body: Body{Message: MessageCreated, Instance: instance}}
	case errors.Is(err, ErrUnauthorized):
		return Response{StatusCode: http.StatusUnauthorized, Body: Body{Message: MessageUnauthorized}}
	case errors.Is(err, ErrInstanceExists):
		return Response{StatusCode: http.StatusBadRequest, Body: Body{Message: MessageExists}}
	default:
		return Response{StatusCode: http.StatusInternalServerError, Body: Body{Message: MessageCreateFailed, Error: err.Error()}}
	}
}

// Start authorizes the passcode, checks for an existing instance and tries
// each placement candidate in order until one launch succeeds. When every
// candidate fails, the last launch error is returned.
//
// The existence check and the launch are not atomic: two concurrent calls
// can both launch.
func (h *Handler) Start(ctx context.Context, passcode string) (*models.LaunchedInstance, error) {
	if !h.authorized(passcode) {
		return nil, ErrUnauthorized
	}

	if err := h.checkExisting(ctx); err != nil {
		return nil, err
	}

	snapshots, err := h.cloud.ListSnapshots(ctx)
	if err != nil {
		return nil, err
	}
	var snapshotID string
	if latest, ok := janitor.LatestSnapshot(snapshots); ok {
		snapshotID = latest.SnapshotID
	}

	script, err := userdata.Encode(h.cfg.Watchdog)
	if err != nil {
		return nil, err
	}

	candidates, err := h.placer.Candidates(ctx)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, ErrNoPlacement
	}

	var lastErr error
	for _, placement := range candidates {
		instance, err := h.cloud.RunSpotInstance(ctx, h.launchInput(placement, snapshotID, script))
		if err != nil {
			log.WithError(err).WithField("placement", placement.String()).Warn("launch failed, trying next candidate")
			lastErr = err
			continue
		}

		log.WithFields(log.Fields{
			"instance":     instance.InstanceID,
			"placement":    placement.String(),
			"restoredFrom": snapshotID,
		}).Info("launched spot instance")
		return instance, nil
	}

	return nil, lastErr
}

func (h *Handler) authorized(passcode string) bool {
	if h.cfg.Passcode == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(passcode), []byte(h.cfg.Passcode)) == 1
}

func (h *Handler) checkExisting(ctx context.Context) error {
	var states []string
	if h.cfg.Existing == ExistingRunning {
		states = []string{"running"}
	}

	instances, err := h.cloud.ListInstances(ctx, states...)
	if err != nil {
		return err
	}
	if len(instances) > 0 {
		return fmt.Errorf("%w: %s (%s)", ErrInstanceExists, instances[0].InstanceID, instances[0].State)
	}
	return nil
}

func (h *Handler) launchInput(placement models.Placement, snapshotID, script string) awsclient.LaunchInput {
	return awsclient.LaunchInput{
		ImageID:              h.cfg.ImageID,
		Placement:            placement,
		SecurityGroupIDs:     h.cfg.SecurityGroupIDs,
		KeyName:              h.cfg.KeyName,
		SpotType:             h.cfg.SpotType,
		InterruptionBehavior: h.cfg.InterruptionBehavior,
		DeviceName:           h.cfg.DeviceName,
		VolumeSize:           h.cfg.VolumeSize,
		VolumeType:           h.cfg.VolumeType,
		SnapshotID:           snapshotID,
		UserData:             script,
	}
}
