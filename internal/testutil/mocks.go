package testutil

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/microlearn/payments/internal/application/checkout"
	"github.com/microlearn/payments/internal/domain/course"
	"github.com/microlearn/payments/internal/domain/enrollment"
	domainErrors "github.com/microlearn/payments/internal/domain/errors"
	"github.com/microlearn/payments/internal/domain/payment"
	"github.com/microlearn/payments/internal/domain/user"
	infraredis "github.com/microlearn/payments/internal/infrastructure/redis"
)

// --- Payment Repository Mock ---

// MockPaymentRepository is an in-memory implementation of payment.Repository.
// Individual methods can be overridden through the Func fields.
type MockPaymentRepository struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*payment.Payment

	CreateFunc       func(ctx context.Context, p *payment.Payment) error
	GetByIDFunc      func(ctx context.Context, id uuid.UUID) (*payment.Payment, error)
	GetCompletedFunc func(ctx context.Context, userID, courseID uuid.UUID) (*payment.Payment, error)
	UpdateFunc       func(ctx context.Context, p *payment.Payment) error
	ListByUserFunc   func(ctx context.Context, userID uuid.UUID) ([]*payment.Payment, error)
}

func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		payments: make(map[uuid.UUID]*payment.Payment),
	}
}

func (m *MockPaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.payments[p.ID] = &cp
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, domainErrors.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPaymentRepository) GetCompleted(ctx context.Context, userID, courseID uuid.UUID) (*payment.Payment, error) {
	if m.GetCompletedFunc != nil {
		return m.GetCompletedFunc(ctx, userID, courseID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.UserID == userID && p.CourseID == courseID && p.Status == payment.StatusCompleted {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domainErrors.ErrPaymentNotFound
}

func (m *MockPaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payments[p.ID]; !ok {
		return domainErrors.ErrPaymentNotFound
	}
	cp := *p
	m.payments[p.ID] = &cp
	return nil
}

func (m *MockPaymentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*payment.Payment, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*payment.Payment, 0)
	for _, p := range m.payments {
		if p.UserID == userID {
			cp := *p
			result = append(result, &cp)
		}
	}
	return result, nil
}

// Stored returns the current stored state of a payment, bypassing overrides.
func (m *MockPaymentRepository) Stored(id uuid.UUID) *payment.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

// --- Enrollment Repository Mock ---

// MockEnrollmentRepository is an in-memory enrollment.Repository enforcing
// the one-row-per-(user,course) rule the real table's unique constraint
// provides.
type MockEnrollmentRepository struct {
	mu          sync.Mutex
	enrollments map[string]*enrollment.Enrollment

	CreateFunc          func(ctx context.Context, e *enrollment.Enrollment) (bool, error)
	GetByUserCourseFunc func(ctx context.Context, userID, courseID uuid.UUID) (*enrollment.Enrollment, error)
}

func NewMockEnrollmentRepository() *MockEnrollmentRepository {
	return &MockEnrollmentRepository{
		enrollments: make(map[string]*enrollment.Enrollment),
	}
}

func pairKey(userID, courseID uuid.UUID) string {
	return userID.String() + "/" + courseID.String()
}

func (m *MockEnrollmentRepository) Create(ctx context.Context, e *enrollment.Enrollment) (bool, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, e)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := pairKey(e.UserID, e.CourseID)
	if _, ok := m.enrollments[key]; ok {
		return false, nil
	}
	cp := *e
	m.enrollments[key] = &cp
	return true, nil
}

func (m *MockEnrollmentRepository) GetByUserCourse(ctx context.Context, userID, courseID uuid.UUID) (*enrollment.Enrollment, error) {
	if m.GetByUserCourseFunc != nil {
		return m.GetByUserCourseFunc(ctx, userID, courseID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.enrollments[pairKey(userID, courseID)]
	if !ok {
		return nil, domainErrors.ErrEnrollmentNotFound
	}
	cp := *e
	return &cp, nil
}

// Count returns the number of stored enrollments.
func (m *MockEnrollmentRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.enrollments)
}

// --- Course Repository Mock ---

// MockCourseRepository is an in-memory course.Repository with an observable
// enrolled counter.
type MockCourseRepository struct {
	mu      sync.Mutex
	courses map[uuid.UUID]*course.Course

	GetByIDFunc                func(ctx context.Context, id uuid.UUID) (*course.Course, error)
	IncrementEnrolledCountFunc func(ctx context.Context, id uuid.UUID) error
}

func NewMockCourseRepository(courses ...*course.Course) *MockCourseRepository {
	m := &MockCourseRepository{courses: make(map[uuid.UUID]*course.Course)}
	for _, c := range courses {
		cp := *c
		m.courses[c.ID] = &cp
	}
	return m
}

func (m *MockCourseRepository) GetByID(ctx context.Context, id uuid.UUID) (*course.Course, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[id]
	if !ok {
		return nil, domainErrors.ErrCourseNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MockCourseRepository) IncrementEnrolledCount(ctx context.Context, id uuid.UUID) error {
	if m.IncrementEnrolledCountFunc != nil {
		return m.IncrementEnrolledCountFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[id]
	if !ok {
		return domainErrors.ErrCourseNotFound
	}
	c.EnrolledCount++
	return nil
}

// EnrolledCount returns the stored counter for a course.
func (m *MockCourseRepository) EnrolledCount(id uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[id]
	if !ok {
		return 0
	}
	return c.EnrolledCount
}

// --- User Repository Mock ---

// MockUserRepository is an in-memory user.Repository.
type MockUserRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]*user.User

	GetByIDFunc func(ctx context.Context, id uuid.UUID) (*user.User, error)
}

func NewMockUserRepository(users ...*user.User) *MockUserRepository {
	m := &MockUserRepository{users: make(map[uuid.UUID]*user.User)}
	for _, u := range users {
		cp := *u
		m.users[u.ID] = &cp
	}
	return m
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domainErrors.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// --- Job Enqueuer Mock ---

// EnqueuedJob records one Enqueue call.
type EnqueuedJob struct {
	Queue   string
	Payload any
	Opts    infraredis.EnqueueOptions
}

// MockEnqueuer records jobs instead of writing to redis.
type MockEnqueuer struct {
	mu   sync.Mutex
	jobs []EnqueuedJob

	EnqueueFunc func(ctx context.Context, queue string, payload any, opts infraredis.EnqueueOptions) (*infraredis.Job, error)
}

func NewMockEnqueuer() *MockEnqueuer {
	return &MockEnqueuer{}
}

func (m *MockEnqueuer) Enqueue(ctx context.Context, queue string, payload any, opts infraredis.EnqueueOptions) (*infraredis.Job, error) {
	if m.EnqueueFunc != nil {
		return m.EnqueueFunc(ctx, queue, payload, opts)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, EnqueuedJob{Queue: queue, Payload: payload, Opts: opts})
	return &infraredis.Job{
		ID:          uuid.New(),
		Queue:       queue,
		Attempt:     1,
		MaxAttempts: opts.MaxAttempts,
	}, nil
}

// Jobs returns a snapshot of the recorded jobs.
func (m *MockEnqueuer) Jobs() []EnqueuedJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EnqueuedJob, len(m.jobs))
	copy(out, m.jobs)
	return out
}

// JobsFor returns the recorded jobs for one queue.
func (m *MockEnqueuer) JobsFor(queue string) []EnqueuedJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []EnqueuedJob
	for _, j := range m.jobs {
		if j.Queue == queue {
			out = append(out, j)
		}
	}
	return out
}

// --- Transaction Manager Mock ---

// MockTransactionManager runs the function without a real transaction.
type MockTransactionManager struct {
	WithTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.WithTransactionFunc != nil {
		return m.WithTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

var _ checkout.JobEnqueuer = (*MockEnqueuer)(nil)
