package usecase

import (
	"context"
	"io"
	"time"

	"github.com/prodpix/prodpix/internal/domain"
)

// MOCK IMAGE REPOSITORY

type mockImageRepo struct {
	createFn     func(ctx context.Context, image *domain.Image) error
	findByIDFn   func(ctx context.Context, id string) (*domain.Image, error)
	listByUserFn func(ctx context.Context, userID string, limit, offset int) ([]*domain.Image, error)
	deleteFn     func(ctx context.Context, id string) error
}

func (m *mockImageRepo) Create(ctx context.Context, image *domain.Image) error {
	return m.createFn(ctx, image)
}

func (m *mockImageRepo) FindByID(ctx context.Context, id string) (*domain.Image, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockImageRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Image, error) {
	return m.listByUserFn(ctx, userID, limit, offset)
}

func (m *mockImageRepo) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

// MOCK TASK REPOSITORY

type mockTaskRepo struct {
	createFn            func(ctx context.Context, task *domain.BatchTask) error
	findByIDFn          func(ctx context.Context, id string) (*domain.BatchTask, error)
	listByUserFn        func(ctx context.Context, userID string, limit, offset int) ([]*domain.BatchTask, error)
	getStatusFn         func(ctx context.Context, id string) (domain.TaskStatus, error)
	markProcessingFn    func(ctx context.Context, id string) error
	incrementProgressFn func(ctx context.Context, id string, itemFailed bool) error
	finalizeFn          func(ctx context.Context, id string) error
	markFailedFn        func(ctx context.Context, id string, errMsg string) error
	markCancelledFn     func(ctx context.Context, id string) error
	setPackageFn        func(ctx context.Context, id string, packageKey string, packagedAt time.Time) error
}

func (m *mockTaskRepo) Create(ctx context.Context, task *domain.BatchTask) error {
	return m.createFn(ctx, task)
}

func (m *mockTaskRepo) FindByID(ctx context.Context, id string) (*domain.BatchTask, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockTaskRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.BatchTask, error) {
	return m.listByUserFn(ctx, userID, limit, offset)
}

func (m *mockTaskRepo) GetStatus(ctx context.Context, id string) (domain.TaskStatus, error) {
	return m.getStatusFn(ctx, id)
}

func (m *mockTaskRepo) MarkProcessing(ctx context.Context, id string) error {
	return m.markProcessingFn(ctx, id)
}

func (m *mockTaskRepo) IncrementProgress(ctx context.Context, id string, itemFailed bool) error {
	return m.incrementProgressFn(ctx, id, itemFailed)
}

func (m *mockTaskRepo) Finalize(ctx context.Context, id string) error {
	return m.finalizeFn(ctx, id)
}

func (m *mockTaskRepo) MarkFailed(ctx context.Context, id string, errMsg string) error {
	return m.markFailedFn(ctx, id, errMsg)
}

func (m *mockTaskRepo) MarkCancelled(ctx context.Context, id string) error {
	return m.markCancelledFn(ctx, id)
}

func (m *mockTaskRepo) SetPackage(ctx context.Context, id string, packageKey string, packagedAt time.Time) error {
	return m.setPackageFn(ctx, id, packageKey, packagedAt)
}

// MOCK JOB REPOSITORY

type mockJobRepo struct {
	createBatchFn   func(ctx context.Context, jobs []*domain.ProcessingJob) error
	createFn        func(ctx context.Context, job *domain.ProcessingJob) error
	findByIDFn      func(ctx context.Context, id string) (*domain.ProcessingJob, error)
	listByTaskFn    func(ctx context.Context, taskID string) ([]*domain.ProcessingJob, error)
	updateFn        func(ctx context.Context, job *domain.ProcessingJob) error
	cancelPendingFn func(ctx context.Context, taskID string) (int64, error)
}

func (m *mockJobRepo) CreateBatch(ctx context.Context, jobs []*domain.ProcessingJob) error {
	return m.createBatchFn(ctx, jobs)
}

func (m *mockJobRepo) Create(ctx context.Context, job *domain.ProcessingJob) error {
	return m.createFn(ctx, job)
}

func (m *mockJobRepo) FindByID(ctx context.Context, id string) (*domain.ProcessingJob, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockJobRepo) ListByTask(ctx context.Context, taskID string) ([]*domain.ProcessingJob, error) {
	return m.listByTaskFn(ctx, taskID)
}

func (m *mockJobRepo) Update(ctx context.Context, job *domain.ProcessingJob) error {
	return m.updateFn(ctx, job)
}

func (m *mockJobRepo) CancelPending(ctx context.Context, taskID string) (int64, error) {
	return m.cancelPendingFn(ctx, taskID)
}

// MOCK SUBSCRIPTION REPOSITORY

type mockSubRepo struct {
	findByUserFn func(ctx context.Context, userID string) (*domain.Subscription, error)
	createFn     func(ctx context.Context, sub *domain.Subscription) error
	changePlanFn func(ctx context.Context, userID string, plan domain.Plan, imagesPerMonth int) error
	addCreditsFn func(ctx context.Context, userID string, credits int) error
	consumeFn    func(ctx context.Context, userID string, count int) (*domain.Subscription, error)
	refundFn     func(ctx context.Context, userID string, count int) error
}

func (m *mockSubRepo) FindByUser(ctx context.Context, userID string) (*domain.Subscription, error) {
	return m.findByUserFn(ctx, userID)
}

func (m *mockSubRepo) Create(ctx context.Context, sub *domain.Subscription) error {
	return m.createFn(ctx, sub)
}

func (m *mockSubRepo) ChangePlan(ctx context.Context, userID string, plan domain.Plan, imagesPerMonth int) error {
	return m.changePlanFn(ctx, userID, plan, imagesPerMonth)
}

func (m *mockSubRepo) AddCredits(ctx context.Context, userID string, credits int) error {
	return m.addCreditsFn(ctx, userID, credits)
}

func (m *mockSubRepo) Consume(ctx context.Context, userID string, count int) (*domain.Subscription, error) {
	return m.consumeFn(ctx, userID, count)
}

func (m *mockSubRepo) Refund(ctx context.Context, userID string, count int) error {
	return m.refundFn(ctx, userID, count)
}

// MOCK STORAGE

type mockStorage struct {
	saveOriginalFn func(ctx context.Context, filename string, reader io.Reader) (string, error)
	saveOutputFn   func(ctx context.Context, filename string, reader io.Reader) (string, error)
	savePackageFn  func(ctx context.Context, filename string, reader io.Reader) (string, error)
	getFn          func(ctx context.Context, key string) (io.ReadCloser, error)
	deleteFn       func(ctx context.Context, key string) error
	presignedURLFn func(ctx context.Context, key string, expires time.Duration) (string, error)
}

func (m *mockStorage) SaveOriginal(ctx context.Context, filename string, reader io.Reader) (string, error) {
	return m.saveOriginalFn(ctx, filename, reader)
}

func (m *mockStorage) SaveOutput(ctx context.Context, filename string, reader io.Reader) (string, error) {
	return m.saveOutputFn(ctx, filename, reader)
}

func (m *mockStorage) SavePackage(ctx context.Context, filename string, reader io.Reader) (string, error) {
	return m.savePackageFn(ctx, filename, reader)
}

func (m *mockStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return m.getFn(ctx, key)
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	return m.deleteFn(ctx, key)
}

func (m *mockStorage) PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	return m.presignedURLFn(ctx, key, expires)
}

// MOCK QUEUE

type mockQueue struct {
	publishFn func(ctx context.Context, taskID string) error
}

func (m *mockQueue) PublishBatchTask(ctx context.Context, taskID string) error {
	return m.publishFn(ctx, taskID)
}

func (m *mockQueue) Close() error {
	return nil
}

// MOCK SUBSCRIPTION SERVICE

type mockSubService struct {
	getFn        func(ctx context.Context, userID string) (*domain.Subscription, error)
	changePlanFn func(ctx context.Context, userID string, plan domain.Plan) (*domain.Subscription, error)
	addCreditsFn func(ctx context.Context, userID string, credits int) (*domain.Subscription, error)
	reserveFn    func(ctx context.Context, userID string, count int) (*domain.Admission, error)
	releaseFn    func(ctx context.Context, userID string, count int) error
}

func (m *mockSubService) GetSubscription(ctx context.Context, userID string) (*domain.Subscription, error) {
	return m.getFn(ctx, userID)
}

func (m *mockSubService) ChangePlan(ctx context.Context, userID string, plan domain.Plan) (*domain.Subscription, error) {
	return m.changePlanFn(ctx, userID, plan)
}

func (m *mockSubService) AddCredits(ctx context.Context, userID string, credits int) (*domain.Subscription, error) {
	return m.addCreditsFn(ctx, userID, credits)
}

func (m *mockSubService) Reserve(ctx context.Context, userID string, count int) (*domain.Admission, error) {
	return m.reserveFn(ctx, userID, count)
}

func (m *mockSubService) Release(ctx context.Context, userID string, count int) error {
	return m.releaseFn(ctx, userID, count)
}

// MOCK MODEL ADAPTER

type mockModels struct {
	detectTextFn         func(ctx context.Context, image []byte) ([]domain.Region, error)
	inpaintFn            func(ctx context.Context, image []byte, mask []byte) ([]byte, float64, error)
	segmentSubjectFn     func(ctx context.Context, image []byte) ([]byte, error)
	generateBackgroundFn func(ctx context.Context, prompt string, width, height int) ([]byte, float64, error)
}

func (m *mockModels) DetectText(ctx context.Context, image []byte) ([]domain.Region, error) {
	return m.detectTextFn(ctx, image)
}

func (m *mockModels) Inpaint(ctx context.Context, image []byte, mask []byte) ([]byte, float64, error) {
	return m.inpaintFn(ctx, image, mask)
}

func (m *mockModels) SegmentSubject(ctx context.Context, image []byte) ([]byte, error) {
	return m.segmentSubjectFn(ctx, image)
}

func (m *mockModels) GenerateBackground(ctx context.Context, prompt string, width, height int) ([]byte, float64, error) {
	return m.generateBackgroundFn(ctx, prompt, width, height)
}
