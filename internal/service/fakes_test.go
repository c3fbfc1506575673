package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"metrocare-be/internal/entity"
	"metrocare-be/internal/model"
	"metrocare-be/internal/repository/contract"
	"metrocare-be/internal/repository/specification"
	"metrocare-be/internal/repository/unitofwork"
	"metrocare-be/pkg/similarity"

	"github.com/google/uuid"
)

// memStore is an in-memory database. A transaction holds txMu from Begin
// until Commit or Rollback, which serialises transactions the way row locks
// serialise them in postgres.
type memStore struct {
	txMu sync.Mutex

	mu            sync.Mutex
	users         map[uuid.UUID]*entity.User
	reports       map[uuid.UUID]*entity.Report
	updates       []*entity.StatusUpdate
	votes         map[uuid.UUID]*entity.Vote
	notifications []model.Notification

	failFindVectors error
}

func newMemStore() *memStore {
	return &memStore{
		users:   make(map[uuid.UUID]*entity.User),
		reports: make(map[uuid.UUID]*entity.Report),
		votes:   make(map[uuid.UUID]*entity.Vote),
	}
}

func (s *memStore) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &memUow{store: s}
}

func (s *memStore) addUser(role entity.UserRole) *entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &entity.User{
		Id:         uuid.New(),
		Phone:      fmt.Sprintf("0812%08d", len(s.users)+1),
		Role:       role,
		IsVerified: true,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	s.users[u.Id] = u
	cp := *u
	return &cp
}

func (s *memStore) addReport(reporter uuid.UUID, vector []float32, createdAt time.Time) *entity.Report {
	r := &entity.Report{
		Id:             uuid.New(),
		Title:          "Pothole on main street",
		Description:    "Large pothole near the crossing",
		Category:       entity.CategoryRoadsTransport,
		Priority:       entity.PriorityMedium,
		Status:         entity.ReportStatusPending,
		Images:         []string{"https://img/" + uuid.NewString()},
		ImageEmbedding: vector,
		SimilarReports: []uuid.UUID{},
		ReporterId:     reporter,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
	s.mu.Lock()
	s.reports[r.Id] = r
	s.mu.Unlock()
	return r
}

func (s *memStore) report(id uuid.UUID) *entity.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.reports[id]; ok {
		cp := *r
		return &cp
	}
	return nil
}

func (s *memStore) voteCount(reportId uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.votes {
		if v.ReportId == reportId {
			n++
		}
	}
	return n
}

type memUow struct {
	store  *memStore
	inTx   bool
	closed bool
}

func (u *memUow) Begin(ctx context.Context) error {
	u.store.txMu.Lock()
	u.inTx = true
	return nil
}

func (u *memUow) Commit() error {
	u.end()
	return nil
}

func (u *memUow) Rollback() error {
	u.end()
	return nil
}

func (u *memUow) end() {
	if u.inTx && !u.closed {
		u.closed = true
		u.store.txMu.Unlock()
	}
}

func (u *memUow) UserRepository() contract.UserRepository     { return &memUserRepo{u.store} }
func (u *memUow) ReportRepository() contract.ReportRepository { return &memReportRepo{u.store} }
func (u *memUow) StatusUpdateRepository() contract.StatusUpdateRepository {
	return &memStatusUpdateRepo{u.store}
}
func (u *memUow) VoteRepository() contract.VoteRepository { return &memVoteRepo{u.store} }
func (u *memUow) NotificationRepository() contract.NotificationRepository {
	return &memNotificationRepo{u.store}
}

func paginate[T any](items []T, specs []specification.Specification) []T {
	for _, spec := range specs {
		if p, ok := spec.(specification.Pagination); ok {
			if p.Offset >= len(items) {
				return []T{}
			}
			end := min(p.Offset+p.Limit, len(items))
			return items[p.Offset:end]
		}
	}
	return items
}

// users

type memUserRepo struct{ s *memStore }

func userMatches(u *entity.User, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.ByID:
			if u.Id != sp.ID {
				return false
			}
		case specification.ByIDs:
			if !slices.Contains(sp.IDs, u.Id) {
				return false
			}
		case specification.ByPhone:
			if u.Phone != sp.Phone {
				return false
			}
		case specification.ByRole:
			if string(u.Role) != sp.Role {
				return false
			}
		case specification.ByVerified:
			if u.IsVerified != sp.Verified {
				return false
			}
		}
	}
	return true
}

func (r *memUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *user
	r.s.users[user.Id] = &cp
	return nil
}

func (r *memUserRepo) Update(ctx context.Context, user *entity.User) error {
	return r.Create(ctx, user)
}

func (r *memUserRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	users, _ := r.FindAll(ctx, specs...)
	if len(users) == 0 {
		return nil, nil
	}
	return users[0], nil
}

func (r *memUserRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.User
	for _, u := range r.s.users {
		if userMatches(u, specs) {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memUserRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	users, _ := r.FindAll(ctx, specs...)
	return int64(len(users)), nil
}

func (r *memUserRepo) FindAllWithReportCount(ctx context.Context, specs ...specification.Specification) ([]*entity.UserWithReportCount, error) {
	users, _ := r.FindAll(ctx, specs...)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.UserWithReportCount, len(users))
	for i, u := range users {
		var n int64
		for _, rep := range r.s.reports {
			if rep.ReporterId == u.Id {
				n++
			}
		}
		out[i] = &entity.UserWithReportCount{User: *u, ReportCount: n}
	}
	return out, nil
}

// reports

type memReportRepo struct{ s *memStore }

func reportMatches(r *entity.Report, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.ByID:
			if r.Id != sp.ID {
				return false
			}
		case specification.ByIDs:
			if !slices.Contains(sp.IDs, r.Id) {
				return false
			}
		case specification.ByCategory:
			if string(r.Category) != sp.Category {
				return false
			}
		case specification.ByStatus:
			if string(r.Status) != sp.Status {
				return false
			}
		case specification.ByPriority:
			if string(r.Priority) != sp.Priority {
				return false
			}
		case specification.ReportedBy:
			if r.ReporterId != sp.ReporterID {
				return false
			}
		case specification.HasEmbedding:
			if !r.HasEmbedding() {
				return false
			}
		}
	}
	return true
}

func (r *memReportRepo) Create(ctx context.Context, report *entity.Report) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *report
	r.s.reports[report.Id] = &cp
	return nil
}

func (r *memReportRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Report, error) {
	reports, _ := r.FindAll(ctx, specs...)
	if len(reports) == 0 {
		return nil, nil
	}
	return reports[0], nil
}

func (r *memReportRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Report, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Report
	for _, rep := range r.s.reports {
		if reportMatches(rep, specs) {
			cp := *rep
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, specs), nil
}

func (r *memReportRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, rep := range r.s.reports {
		if reportMatches(rep, specs) {
			n++
		}
	}
	return n, nil
}

func (r *memReportRepo) FindVectors(ctx context.Context, specs ...specification.Specification) ([]*entity.ReportVector, error) {
	if r.s.failFindVectors != nil {
		return nil, r.s.failFindVectors
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.ReportVector
	for _, rep := range r.s.reports {
		if !rep.HasEmbedding() || !reportMatches(rep, specs) {
			continue
		}
		out = append(out, &entity.ReportVector{
			Id:             rep.Id,
			ImageEmbedding: rep.ImageEmbedding,
			Status:         rep.Status,
			Category:       rep.Category,
			Latitude:       rep.Location.Latitude,
			Longitude:      rep.Location.Longitude,
			CreatedAt:      rep.CreatedAt,
		})
	}
	return out, nil
}

func (r *memReportRepo) SearchNearest(ctx context.Context, query []float32, limit int) ([]*contract.ScoredReportVector, error) {
	vectors, err := r.FindVectors(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*contract.ScoredReportVector, 0, len(vectors))
	for _, v := range vectors {
		if len(v.ImageEmbedding) != len(query) {
			continue
		}
		score, _ := similarity.CosineSimilarity(query, v.ImageEmbedding)
		out = append(out, &contract.ScoredReportVector{Vector: v, Similarity: score})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memReportRepo) SetEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rep, ok := r.s.reports[id]
	if !ok {
		return errors.New("report not found")
	}
	rep.ImageEmbedding = embedding
	return nil
}

func (r *memReportRepo) LockForUpdate(ctx context.Context, id uuid.UUID) (*entity.Report, error) {
	return r.FindOne(ctx, specification.ByID{ID: id})
}

func (r *memReportRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.ReportStatus, duplicateOf *uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rep, ok := r.s.reports[id]
	if !ok {
		return errors.New("report not found")
	}
	rep.Status = status
	rep.DuplicateOfId = duplicateOf
	rep.UpdatedAt = time.Now()
	return nil
}

func (r *memReportRepo) AdjustUpvotes(ctx context.Context, id uuid.UUID, delta int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rep, ok := r.s.reports[id]
	if !ok {
		return errors.New("report not found")
	}
	rep.Upvotes = max(rep.Upvotes+delta, 0)
	return nil
}

// status updates

type memStatusUpdateRepo struct{ s *memStore }

func (r *memStatusUpdateRepo) Create(ctx context.Context, update *entity.StatusUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *update
	r.s.updates = append(r.s.updates, &cp)
	return nil
}

func (r *memStatusUpdateRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.StatusUpdate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.StatusUpdate
	for _, u := range r.s.updates {
		keep := true
		for _, spec := range specs {
			if sp, ok := spec.(specification.ByReportID); ok && u.ReportId != sp.ReportID {
				keep = false
			}
		}
		if keep {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memStatusUpdateRepo) FindForReporterSince(ctx context.Context, reporterId uuid.UUID, since time.Time, limit int) ([]*contract.StatusUpdateFeedItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*contract.StatusUpdateFeedItem
	for _, u := range r.s.updates {
		rep, ok := r.s.reports[u.ReportId]
		if !ok || rep.ReporterId != reporterId || u.CreatedAt.Before(since) {
			continue
		}
		cp := *u
		out = append(out, &contract.StatusUpdateFeedItem{Update: &cp, ReportTitle: rep.Title, CurrentStatus: rep.Status})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Update.CreatedAt.After(out[j].Update.CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// votes

type memVoteRepo struct{ s *memStore }

func (r *memVoteRepo) FindByUserAndReport(ctx context.Context, userId, reportId uuid.UUID) (*entity.Vote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, v := range r.s.votes {
		if v.UserId == userId && v.ReportId == reportId {
			cp := *v
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memVoteRepo) Create(ctx context.Context, vote *entity.Vote) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, v := range r.s.votes {
		if v.UserId == vote.UserId && v.ReportId == vote.ReportId {
			return errors.New("duplicate key value violates unique constraint \"idx_votes_user_report\"")
		}
	}
	cp := *vote
	r.s.votes[vote.Id] = &cp
	return nil
}

func (r *memVoteRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.votes, id)
	return nil
}

func (r *memVoteRepo) CountByReport(ctx context.Context, reportId uuid.UUID) (int64, error) {
	return int64(r.s.voteCount(reportId)), nil
}

func (r *memVoteRepo) CountByReports(ctx context.Context, reportIds []uuid.UUID) (map[uuid.UUID]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[uuid.UUID]int64, len(reportIds))
	for _, v := range r.s.votes {
		if slices.Contains(reportIds, v.ReportId) {
			out[v.ReportId]++
		}
	}
	return out, nil
}

func (r *memVoteRepo) FindForReporterSince(ctx context.Context, reporterId uuid.UUID, since time.Time, limit int) ([]*contract.VoteFeedItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*contract.VoteFeedItem
	for _, v := range r.s.votes {
		rep, ok := r.s.reports[v.ReportId]
		if !ok || rep.ReporterId != reporterId || v.CreatedAt.Before(since) {
			continue
		}
		cp := *v
		out = append(out, &contract.VoteFeedItem{Vote: &cp, ReportTitle: rep.Title})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Vote.CreatedAt.After(out[j].Vote.CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// notifications

type memNotificationRepo struct{ s *memStore }

func (r *memNotificationRepo) CreateNotification(ctx context.Context, n *model.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.notifications = append(r.s.notifications, *n)
	return nil
}

func (r *memNotificationRepo) GetNotificationsByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Notification, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var mine []model.Notification
	for _, n := range r.s.notifications {
		if n.UserID == userID {
			mine = append(mine, n)
		}
	}
	total := int64(len(mine))
	return paginate(mine, []specification.Specification{specification.Pagination{Limit: limit, Offset: offset}}), total, nil
}

func (r *memNotificationRepo) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, notif := range r.s.notifications {
		if notif.UserID == userID && !notif.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *memNotificationRepo) MarkAsRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.notifications {
		if r.s.notifications[i].ID == notificationID && r.s.notifications[i].UserID == userID {
			r.s.notifications[i].IsRead = true
		}
	}
	return nil
}

func (r *memNotificationRepo) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.notifications {
		if r.s.notifications[i].UserID == userID {
			r.s.notifications[i].IsRead = true
		}
	}
	return nil
}

func (r *memNotificationRepo) GetUserIDsByRoles(ctx context.Context, roles ...string) ([]uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var ids []uuid.UUID
	for _, u := range r.s.users {
		if slices.Contains(roles, string(u.Role)) {
			ids = append(ids, u.Id)
		}
	}
	return ids, nil
}

// collaborators

type recordingQueue struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (q *recordingQueue) Publish(ctx context.Context, payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.payloads = append(q.payloads, payload)
	return nil
}

type statusEvent struct {
	reportId uuid.UUID
	previous entity.ReportStatus
	next     entity.ReportStatus
}

type recordingEvents struct {
	mu      sync.Mutex
	created []uuid.UUID
	status  []statusEvent
	votes   int
}

func (e *recordingEvents) PublishReportCreated(ctx context.Context, report *entity.Report) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.created = append(e.created, report.Id)
}

func (e *recordingEvents) PublishStatusChanged(ctx context.Context, report *entity.Report, previous entity.ReportStatus, update *entity.StatusUpdate) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = append(e.status, statusEvent{reportId: report.Id, previous: previous, next: update.Status})
}

func (e *recordingEvents) PublishReportVoted(ctx context.Context, report *entity.Report, voterId uuid.UUID, voted bool, upvotes int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.votes++
}
