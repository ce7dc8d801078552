package services

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudemu/engine/internal/models"
	"github.com/cloudemu/engine/internal/repository"
	"github.com/cloudemu/engine/internal/runtime"
	appErr "github.com/cloudemu/engine/pkg/errors"
	"github.com/cloudemu/engine/pkg/logger"
	"go.uber.org/zap"
)

// DatabaseService is the RDS-like lifecycle controller.
type DatabaseService interface {
	Create(ctx context.Context, input *CreateDatabaseInput) (*models.DatabaseInstance, error)
	List(ctx context.Context) ([]models.DatabaseInstance, error)
	Get(ctx context.Context, id string) (*models.DatabaseInstance, error)
	Start(ctx context.Context, id string) (*models.DatabaseInstance, error)
	Stop(ctx context.Context, id string) (*models.DatabaseInstance, error)
	Delete(ctx context.Context, id string) error
}

type CreateDatabaseInput struct {
	// Identifier is the caller-chosen name without the db- prefix.
	Identifier string
	Username   string
	Password   string
	Engine     string
}

// engineProfile is how one engine is provisioned on the runtime.
type engineProfile struct {
	image string
	port  runtime.PortSpec
	env   func(username, password string) []string
}

var engineProfiles = map[models.Engine]engineProfile{
	models.EnginePostgres: {
		image: "postgres:latest",
		port:  runtime.PortSpec{ContainerPort: 5432, Protocol: "tcp"},
		env: func(username, password string) []string {
			return []string{"POSTGRES_USER=" + username, "POSTGRES_PASSWORD=" + password}
		},
	},
	models.EngineMySQL: {
		image: "mysql:latest",
		port:  runtime.PortSpec{ContainerPort: 3306, Protocol: "tcp"},
		env: func(username, password string) []string {
			return []string{
				"MYSQL_ROOT_PASSWORD=" + password,
				"MYSQL_USER=" + username,
				"MYSQL_PASSWORD=" + password,
			}
		},
	},
}

type databaseService struct {
	Lifecycle
	repo         repository.DBInstanceRepository
	endpointHost string
}

// NewDatabaseService creates the controller. endpointHost is reported as the
// endpoint of every database, since ports are published on the runtime host.
func NewDatabaseService(repo repository.DBInstanceRepository, endpointHost string, lc Lifecycle) DatabaseService {
	return &databaseService{Lifecycle: lc.withDefaults(), repo: repo, endpointHost: endpointHost}
}

var _ DatabaseService = (*databaseService)(nil)

func (s *databaseService) Create(ctx context.Context, input *CreateDatabaseInput) (inst *models.DatabaseInstance, err error) {
	defer func(start time.Time) { s.observe(kindDatabase, "create", start, err) }(time.Now())

	engine, ok := models.ParseEngine(input.Engine)
	if !ok {
		return nil, appErr.New(appErr.CodeUnsupportedEngine, "Unsupported Engine").WithMeta("engine", input.Engine)
	}
	profile := engineProfiles[engine]

	identifier := models.DatabaseIdentifierPrefix + input.Identifier
	logger.L().Info("create db instance called", zap.String("identifier", identifier), zap.String("engine", string(engine)))

	release, err := s.Locker.Acquire(ctx, identifier)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "acquire identifier lock failed")
	}
	defer release()

	var existing models.DatabaseInstance
	switch err := s.repo.GetByIdentifier(ctx, identifier, &existing); {
	case err == nil:
		return nil, appErr.New(appErr.CodeConflict, "DB instance identifier already exists").WithMeta("identifier", identifier)
	case !appErr.IsCode(err, appErr.CodeNotFound):
		return nil, err
	}

	runtimeID, err := s.Runtime.CreateAndStart(ctx, runtime.CreateSpec{
		Image:   profile.image,
		Name:    identifier,
		Env:     profile.env(input.Username, input.Password),
		Labels:  labels(kindDatabase, identifier),
		Publish: []runtime.PortSpec{profile.port},
	})
	if err != nil {
		logger.L().Error("create db container failed", zap.String("identifier", identifier), zap.Error(err))
		return nil, runtimeFault(err, "create db instance failed")
	}

	port, err := s.hostPort(ctx, runtimeID, profile.port)
	if err != nil {
		return nil, s.orphaned(ctx, runtimeID, identifier, err)
	}

	inst = &models.DatabaseInstance{
		ID:         runtimeID,
		Identifier: identifier,
		Username:   input.Username,
		Password:   input.Password,
		Endpoint:   s.endpointHost,
		Port:       port,
		Engine:     engine,
		Status:     models.StatusRunning,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, inst); err != nil {
		s.discard(ctx, runtimeID, "db instance record not persisted")
		return nil, err
	}

	s.publish(ctx, kindDatabase, "create", inst.ID, inst.Identifier, string(inst.Status))
	logger.L().Info("db instance created", zap.String("instance_id", inst.ID), zap.String("identifier", identifier), zap.Int("port", port))
	return inst, nil
}

// hostPort discovers the host port the runtime assigned to p.
func (s *databaseService) hostPort(ctx context.Context, runtimeID string, p runtime.PortSpec) (int, error) {
	info, err := s.Runtime.Inspect(ctx, runtimeID)
	if err != nil {
		return 0, err
	}
	port, ok := info.HostPort(p)
	if !ok {
		return 0, fmt.Errorf("no host port published for %s", p)
	}
	return port, nil
}

// orphaned reports a container that exists without a record. It is left in
// place unless orphan cleanup is enabled.
func (s *databaseService) orphaned(ctx context.Context, runtimeID, identifier string, cause error) error {
	logger.L().Error("db port introspection failed",
		zap.String("runtime_id", runtimeID),
		zap.String("identifier", identifier),
		zap.Bool("cleanup", s.CleanupOrphans),
		zap.Error(cause))

	if s.CleanupOrphans {
		if s.Reaper != nil {
			if err := s.Reaper.EnqueueRemoval(ctx, runtimeID, "db port introspection failed"); err != nil {
				logger.L().Error("enqueue runtime removal failed", zap.String("runtime_id", runtimeID), zap.Error(err))
			}
		} else {
			s.discard(ctx, runtimeID, "db port introspection failed")
		}
	}

	msg := fmt.Sprintf("db instance container %s was created but its port could not be determined", runtimeID)
	return appErr.Wrap(cause, appErr.CodeRuntime, msg).
		WithMeta("runtime_id", runtimeID).
		WithMeta("identifier", identifier)
}

func (s *databaseService) List(ctx context.Context) ([]models.DatabaseInstance, error) {
	return s.repo.List(ctx)
}

func (s *databaseService) Get(ctx context.Context, id string) (*models.DatabaseInstance, error) {
	var inst models.DatabaseInstance
	if err := s.repo.GetByID(ctx, id, &inst); err != nil {
		if appErr.IsCode(err, appErr.CodeNotFound) {
			return nil, appErr.New(appErr.CodeNotFound, "DB instance not found").WithMeta("instance_id", id)
		}
		return nil, err
	}
	return &inst, nil
}

func (s *databaseService) Start(ctx context.Context, id string) (*models.DatabaseInstance, error) {
	return s.transition(ctx, "start", id, models.StatusRunning, s.Runtime.Start)
}

func (s *databaseService) Stop(ctx context.Context, id string) (*models.DatabaseInstance, error) {
	return s.transition(ctx, "stop", id, models.StatusStopped, s.Runtime.Stop)
}

// Database containers are addressed by their identifier, which is also the container name.
func (s *databaseService) transition(ctx context.Context, op, id string, status models.InstanceStatus, call func(context.Context, string) error) (inst *models.DatabaseInstance, err error) {
	defer func(start time.Time) { s.observe(kindDatabase, op, start, err) }(time.Now())
	logger.L().Info(op+" db instance called", zap.String("instance_id", id))

	inst, err = s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := call(ctx, inst.Identifier); err != nil {
		logger.L().Error(op+" db instance failed", zap.String("identifier", inst.Identifier), zap.Error(err))
		return nil, runtimeFault(err, op+" db instance failed")
	}
	if err := s.repo.UpdateStatus(ctx, inst.ID, status); err != nil {
		return nil, err
	}
	inst.Status = status

	s.publish(ctx, kindDatabase, op, inst.ID, inst.Identifier, string(status))
	return inst, nil
}

func (s *databaseService) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { s.observe(kindDatabase, "delete", start, err) }(time.Now())
	logger.L().Info("delete db instance called", zap.String("instance_id", id))

	inst, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	info, err := s.Runtime.Inspect(ctx, inst.Identifier)
	if err != nil {
		logger.L().Error("locate db container failed", zap.String("identifier", inst.Identifier), zap.Error(err))
		return runtimeFault(err, "delete db instance failed")
	}
	if err := s.Runtime.Stop(ctx, info.ID); err != nil {
		return runtimeFault(err, "delete db instance failed")
	}
	if err := s.Runtime.Remove(ctx, info.ID, false); err != nil {
		return runtimeFault(err, "delete db instance failed")
	}
	if err := s.repo.Delete(ctx, inst.ID); err != nil {
		return err
	}

	s.publish(ctx, kindDatabase, "delete", inst.ID, inst.Identifier, "")
	logger.L().Info("db instance deleted", zap.String("instance_id", id))
	return nil
}
