package services

import (
	"context"
	"time"

	"github.com/cloudemu/engine/internal/models"
	"github.com/cloudemu/engine/internal/repository"
	"github.com/cloudemu/engine/internal/runtime"
	appErr "github.com/cloudemu/engine/pkg/errors"
	"github.com/cloudemu/engine/pkg/logger"
	"go.uber.org/zap"
)

// ComputeService is the EC2-like lifecycle controller.
type ComputeService interface {
	Create(ctx context.Context, input *CreateComputeInput) (*models.ComputeInstance, error)
	List(ctx context.Context) ([]models.ComputeInstance, error)
	Get(ctx context.Context, id string) (*models.ComputeInstance, error)
	Start(ctx context.Context, id string) (*models.ComputeInstance, error)
	Stop(ctx context.Context, id string) (*models.ComputeInstance, error)
	Delete(ctx context.Context, id string) error
}

type CreateComputeInput struct {
	// Identifier is the caller-chosen name without the ec2- prefix.
	Identifier   string
	ImageRef     string
	InstanceType string
}

// computeKeepAlive keeps the container's main process running indefinitely.
var computeKeepAlive = []string{"sleep", "infinity"}

type computeService struct {
	Lifecycle
	repo repository.InstanceRepository
}

func NewComputeService(repo repository.InstanceRepository, lc Lifecycle) ComputeService {
	return &computeService{Lifecycle: lc.withDefaults(), repo: repo}
}

var _ ComputeService = (*computeService)(nil)

func (s *computeService) Create(ctx context.Context, input *CreateComputeInput) (inst *models.ComputeInstance, err error) {
	defer func(start time.Time) { s.observe(kindCompute, "create", start, err) }(time.Now())

	identifier := models.ComputeIdentifierPrefix + input.Identifier
	logger.L().Info("create instance called", zap.String("identifier", identifier), zap.String("ami_id", input.ImageRef))

	release, err := s.Locker.Acquire(ctx, identifier)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "acquire identifier lock failed")
	}
	defer release()

	var existing models.ComputeInstance
	switch err := s.repo.GetByIdentifier(ctx, identifier, &existing); {
	case err == nil:
		return nil, appErr.New(appErr.CodeConflict, "Instance identifier already exists").WithMeta("identifier", identifier)
	case !appErr.IsCode(err, appErr.CodeNotFound):
		return nil, err
	}

	instanceType := input.InstanceType
	if instanceType == "" {
		instanceType = models.DefaultInstanceType
	}

	runtimeID, err := s.Runtime.CreateAndStart(ctx, runtime.CreateSpec{
		Image:  input.ImageRef,
		Name:   identifier,
		Cmd:    computeKeepAlive,
		Labels: labels(kindCompute, identifier),
	})
	if err != nil {
		logger.L().Error("create instance container failed", zap.String("identifier", identifier), zap.Error(err))
		return nil, runtimeFault(err, "create instance failed")
	}

	inst = &models.ComputeInstance{
		ID:           runtimeID,
		Identifier:   identifier,
		ImageRef:     input.ImageRef,
		InstanceType: instanceType,
		Status:       models.StatusRunning,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, inst); err != nil {
		s.discard(ctx, runtimeID, "instance record not persisted")
		return nil, err
	}

	s.publish(ctx, kindCompute, "create", inst.ID, inst.Identifier, string(inst.Status))
	logger.L().Info("instance created", zap.String("instance_id", inst.ID), zap.String("identifier", identifier))
	return inst, nil
}

func (s *computeService) List(ctx context.Context) ([]models.ComputeInstance, error) {
	return s.repo.List(ctx)
}

func (s *computeService) Get(ctx context.Context, id string) (*models.ComputeInstance, error) {
	var inst models.ComputeInstance
	if err := s.repo.GetByID(ctx, id, &inst); err != nil {
		if appErr.IsCode(err, appErr.CodeNotFound) {
			return nil, appErr.New(appErr.CodeNotFound, "Instance not found").WithMeta("instance_id", id)
		}
		return nil, err
	}
	return &inst, nil
}

func (s *computeService) Start(ctx context.Context, id string) (*models.ComputeInstance, error) {
	return s.transition(ctx, "start", id, models.StatusRunning, s.Runtime.Start)
}

func (s *computeService) Stop(ctx context.Context, id string) (*models.ComputeInstance, error) {
	return s.transition(ctx, "stop", id, models.StatusStopped, s.Runtime.Stop)
}

// transition issues the runtime call even when the record already has the
// target status, and only records the new status once the runtime accepted it.
func (s *computeService) transition(ctx context.Context, op, id string, status models.InstanceStatus, call func(context.Context, string) error) (inst *models.ComputeInstance, err error) {
	defer func(start time.Time) { s.observe(kindCompute, op, start, err) }(time.Now())
	logger.L().Info(op+" instance called", zap.String("instance_id", id))

	inst, err = s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := call(ctx, inst.ID); err != nil {
		logger.L().Error(op+" instance failed", zap.String("instance_id", id), zap.Error(err))
		return nil, runtimeFault(err, op+" instance failed")
	}
	if err := s.repo.UpdateStatus(ctx, inst.ID, status); err != nil {
		return nil, err
	}
	inst.Status = status

	s.publish(ctx, kindCompute, op, inst.ID, inst.Identifier, string(status))
	return inst, nil
}

func (s *computeService) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { s.observe(kindCompute, "delete", start, err) }(time.Now())
	logger.L().Info("delete instance called", zap.String("instance_id", id))

	inst, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	// The record outlives a failed removal so the delete can be retried.
	if err := s.Runtime.Remove(ctx, inst.ID, true); err != nil {
		logger.L().Error("remove instance container failed", zap.String("instance_id", id), zap.Error(err))
		return runtimeFault(err, "delete instance failed")
	}
	if err := s.repo.Delete(ctx, inst.ID); err != nil {
		return err
	}

	s.publish(ctx, kindCompute, "delete", inst.ID, inst.Identifier, "")
	logger.L().Info("instance deleted", zap.String("instance_id", id))
	return nil
}
