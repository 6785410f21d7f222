package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godesk-io/godesk-ce/internal/escalation"
	"github.com/godesk-io/godesk-ce/internal/models"
	"github.com/godesk-io/godesk-ce/internal/notifications"
	"github.com/godesk-io/godesk-ce/internal/repository"
	"github.com/godesk-io/godesk-ce/internal/sla"
)

type stubTask struct {
	name     string
	schedule string
	runs     int
}

func (t *stubTask) Name() string           { return t.name }
func (t *stubTask) Schedule() string       { return t.schedule }
func (t *stubTask) Timeout() time.Duration { return time.Second }
func (t *stubTask) Run(context.Context) error {
	t.runs++
	return nil
}

func TestRegistryReplacesByName(t *testing.T) {
	reg := NewRegistry()
	first := &stubTask{name: "job", schedule: "@hourly"}
	second := &stubTask{name: "job", schedule: "@daily"}
	reg.Register(first)
	reg.Register(second)

	all := reg.All()
	require.Len(t, all, 1)
	assert.Equal(t, "@daily", all["job"].Schedule())
}

func TestStartRejectsBadSchedule(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubTask{name: "broken", schedule: "not a schedule"})

	r := NewRunner(reg, nil)
	err := r.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestExecuteAppliesTimeout(t *testing.T) {
	reg := NewRegistry()
	r := NewRunner(reg, nil)

	done := make(chan struct{})
	task := &deadlineTask{done: done}
	r.execute(context.Background(), task)
	<-done
	assert.True(t, task.hadDeadline)
}

type deadlineTask struct {
	hadDeadline bool
	done        chan struct{}
}

func (t *deadlineTask) Name() string           { return "deadline" }
func (t *deadlineTask) Schedule() string       { return "@hourly" }
func (t *deadlineTask) Timeout() time.Duration { return time.Minute }
func (t *deadlineTask) Run(ctx context.Context) error {
	_, t.hadDeadline = ctx.Deadline()
	close(t.done)
	return nil
}

func TestSweepTaskRunsSweeper(t *testing.T) {
	tickets := repository.NewMemoryTicketRepository()
	now := time.Now().UTC().Add(-2 * time.Hour)
	tickets.Seed(&models.Ticket{
		ID: 1, TicketNumber: "T1", Title: "stuck", Status: models.StatusOpen,
		Priority: models.PriorityUrgent, CreatedBy: 10,
		CreatedAt: now, UpdatedAt: now, StatusChangedAt: now, LastActivityAt: now,
		Version: 1,
	})
	teams := repository.NewMemoryTeamRepository()
	users := repository.NewMemoryUserRepository()
	policies := repository.NewMemorySLAPolicyRepository(
		&models.SLAPolicy{Priority: models.PriorityUrgent, ResolutionTimeHours: 4, IsActive: true},
	)
	rules := repository.NewMemoryEscalationRuleRepository()
	execs := repository.NewMemoryEscalationExecutionRepository()
	feedback := repository.NewMemoryFeedbackRepository()

	evaluator := escalation.NewEvaluator(tickets, teams, users, feedback, execs,
		sla.NewService(policies), notifications.NewRecorder(), nil)
	sweeper := escalation.NewSweeper(tickets, rules, evaluator, nil, nil)

	task := NewSweepTask(sweeper, time.Second)
	assert.Equal(t, "escalation-sweep", task.Name())
	assert.Equal(t, "@every 1m0s", task.Schedule(), "sub-minute intervals round up")

	require.NoError(t, task.Run(context.Background()))
}
