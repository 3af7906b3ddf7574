package businessflow

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/taurodigital/sms-panel/app/dto"
	"github.com/taurodigital/sms-panel/models"
	"github.com/taurodigital/sms-panel/repository"
)

// In-memory repository fakes. Flows run them with a nil *gorm.DB, which makes
// WithTransaction execute the callback directly.

type fakeUserRepo struct {
	users   map[uint]*models.User
	debits  int
	credits int

	debitErr error
	saveErr  error
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	m := make(map[uint]*models.User)
	for _, u := range users {
		m[u.ID] = u
	}
	return &fakeUserRepo{users: m}
}

func (f *fakeUserRepo) ByID(ctx context.Context, id uint) (*models.User, error) {
	return f.users[id], nil
}

func (f *fakeUserRepo) ByFilter(ctx context.Context, filter models.UserFilter, orderBy string, limit, offset int) ([]*models.User, error) {
	var out []*models.User
	for _, u := range f.users {
		if filter.Username != nil && u.Username != *filter.Username {
			continue
		}
		if filter.Email != nil && u.Email != *filter.Email {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUserRepo) Save(ctx context.Context, user *models.User) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if user.ID == 0 {
		user.ID = uint(len(f.users) + 1)
	}
	if user.UUID == uuid.Nil {
		user.UUID = uuid.New()
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) SaveBatch(ctx context.Context, users []*models.User) error {
	for _, u := range users {
		if err := f.Save(ctx, u); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeUserRepo) Count(ctx context.Context, filter models.UserFilter) (int64, error) {
	found, err := f.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(found)), err
}

func (f *fakeUserRepo) Exists(ctx context.Context, filter models.UserFilter) (bool, error) {
	found, err := f.ByFilter(ctx, filter, "", 0, 0)
	return len(found) > 0, err
}

func (f *fakeUserRepo) ByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) ByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) ByUUID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	for _, u := range f.users {
		if u.UUID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) Balance(ctx context.Context, userID uint) (uint64, error) {
	u := f.users[userID]
	if u == nil {
		return 0, errors.New("user not found")
	}
	return u.Coins, nil
}

func (f *fakeUserRepo) BalanceForUpdate(ctx context.Context, userID uint) (uint64, error) {
	return f.Balance(ctx, userID)
}

func (f *fakeUserRepo) Credit(ctx context.Context, userID uint, amount uint64) (uint64, uint64, error) {
	u := f.users[userID]
	if u == nil {
		return 0, 0, errors.New("user not found")
	}
	before := u.Coins
	u.Coins += amount
	f.credits++
	return before, u.Coins, nil
}

func (f *fakeUserRepo) Debit(ctx context.Context, userID uint, amount uint64) (uint64, uint64, error) {
	if f.debitErr != nil {
		return 0, 0, f.debitErr
	}
	u := f.users[userID]
	if u == nil {
		return 0, 0, errors.New("user not found")
	}
	before := u.Coins
	if before < amount {
		return before, before, repository.ErrBalanceInsufficient
	}
	u.Coins -= amount
	f.debits++
	return before, u.Coins, nil
}

func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, userID uint) error {
	return nil
}

type fakeCampaignRepo struct {
	campaigns map[uint]*models.Campaign
	nextID    uint

	saveErr error
}

func newFakeCampaignRepo() *fakeCampaignRepo {
	return &fakeCampaignRepo{campaigns: make(map[uint]*models.Campaign), nextID: 1}
}

func (f *fakeCampaignRepo) ByID(ctx context.Context, id uint) (*models.Campaign, error) {
	return f.campaigns[id], nil
}

func (f *fakeCampaignRepo) ByFilter(ctx context.Context, filter models.CampaignFilter, orderBy string, limit, offset int) ([]*models.Campaign, error) {
	var out []*models.Campaign
	for _, c := range f.campaigns {
		if filter.UserID != nil && c.UserID != *filter.UserID {
			continue
		}
		if filter.UUID != nil && c.UUID != *filter.UUID {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeCampaignRepo) Save(ctx context.Context, campaign *models.Campaign) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if campaign.ID == 0 {
		campaign.ID = f.nextID
		f.nextID++
	}
	if campaign.UUID == uuid.Nil {
		campaign.UUID = uuid.New()
	}
	f.campaigns[campaign.ID] = campaign
	return nil
}

func (f *fakeCampaignRepo) SaveBatch(ctx context.Context, campaigns []*models.Campaign) error {
	for _, c := range campaigns {
		if err := f.Save(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeCampaignRepo) Count(ctx context.Context, filter models.CampaignFilter) (int64, error) {
	found, err := f.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(found)), err
}

func (f *fakeCampaignRepo) Exists(ctx context.Context, filter models.CampaignFilter) (bool, error) {
	found, err := f.ByFilter(ctx, filter, "", 0, 0)
	return len(found) > 0, err
}

func (f *fakeCampaignRepo) ByUUID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	for _, c := range f.campaigns {
		if c.UUID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeCampaignRepo) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Campaign, error) {
	all, err := f.ByFilter(ctx, models.CampaignFilter{UserID: &userID}, "", 0, 0)
	if err != nil {
		return nil, err
	}
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeCampaignRepo) DeleteOwned(ctx context.Context, campaignID, userID uint) error {
	c, ok := f.campaigns[campaignID]
	if !ok {
		return repository.ErrCampaignNotFound
	}
	if c.UserID != userID {
		return repository.ErrCampaignAccessDenied
	}
	delete(f.campaigns, campaignID)
	return nil
}

type fakeMessageRepo struct {
	records []*models.MessageRecord

	batchErr error
}

func (f *fakeMessageRepo) ByID(ctx context.Context, id uint) (*models.MessageRecord, error) {
	for _, r := range f.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeMessageRepo) ByFilter(ctx context.Context, filter models.MessageRecordFilter, orderBy string, limit, offset int) ([]*models.MessageRecord, error) {
	var out []*models.MessageRecord
	for _, r := range f.records {
		if filter.UserID != nil && r.UserID != *filter.UserID {
			continue
		}
		if filter.CampaignID != nil && r.CampaignID != *filter.CampaignID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeMessageRepo) Save(ctx context.Context, record *models.MessageRecord) error {
	record.ID = uint(len(f.records) + 1)
	f.records = append(f.records, record)
	return nil
}

func (f *fakeMessageRepo) SaveBatch(ctx context.Context, records []*models.MessageRecord) error {
	if f.batchErr != nil {
		return f.batchErr
	}
	for _, r := range records {
		if err := f.Save(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeMessageRepo) Count(ctx context.Context, filter models.MessageRecordFilter) (int64, error) {
	found, err := f.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(found)), err
}

func (f *fakeMessageRepo) Exists(ctx context.Context, filter models.MessageRecordFilter) (bool, error) {
	found, err := f.ByFilter(ctx, filter, "", 0, 0)
	return len(found) > 0, err
}

func (f *fakeMessageRepo) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.MessageRecord, error) {
	all, err := f.ByFilter(ctx, models.MessageRecordFilter{UserID: &userID}, "", 0, 0)
	if err != nil {
		return nil, err
	}
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeMessageRepo) ListByCampaign(ctx context.Context, campaignID uint) ([]*models.MessageRecord, error) {
	return f.ByFilter(ctx, models.MessageRecordFilter{CampaignID: &campaignID}, "", 0, 0)
}

func (f *fakeMessageRepo) DeleteByCampaign(ctx context.Context, campaignID uint) error {
	kept := f.records[:0]
	for _, r := range f.records {
		if r.CampaignID != campaignID {
			kept = append(kept, r)
		}
	}
	f.records = kept
	return nil
}

type fakeLedgerRepo struct {
	entries []*models.LedgerEntry

	saveErr error
}

func (f *fakeLedgerRepo) ByID(ctx context.Context, id uint) (*models.LedgerEntry, error) {
	for _, e := range f.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, nil
}

func (f *fakeLedgerRepo) ByFilter(ctx context.Context, filter models.LedgerEntryFilter, orderBy string, limit, offset int) ([]*models.LedgerEntry, error) {
	var out []*models.LedgerEntry
	for _, e := range f.entries {
		if filter.UserID != nil && e.UserID != *filter.UserID {
			continue
		}
		if filter.CorrelationID != nil && e.CorrelationID != *filter.CorrelationID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeLedgerRepo) Save(ctx context.Context, entry *models.LedgerEntry) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	entry.ID = uint(len(f.entries) + 1)
	if entry.UUID == uuid.Nil {
		entry.UUID = uuid.New()
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeLedgerRepo) SaveBatch(ctx context.Context, entries []*models.LedgerEntry) error {
	for _, e := range entries {
		if err := f.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeLedgerRepo) Count(ctx context.Context, filter models.LedgerEntryFilter) (int64, error) {
	found, err := f.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(found)), err
}

func (f *fakeLedgerRepo) Exists(ctx context.Context, filter models.LedgerEntryFilter) (bool, error) {
	found, err := f.ByFilter(ctx, filter, "", 0, 0)
	return len(found) > 0, err
}

func (f *fakeLedgerRepo) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.LedgerEntry, error) {
	all, err := f.ByFilter(ctx, models.LedgerEntryFilter{UserID: &userID}, "", 0, 0)
	if err != nil {
		return nil, err
	}
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeLedgerRepo) GetLatestByCorrelationID(ctx context.Context, correlationID uuid.UUID) (*models.LedgerEntry, error) {
	var latest *models.LedgerEntry
	for _, e := range f.entries {
		if e.CorrelationID == correlationID {
			latest = e
		}
	}
	return latest, nil
}

type fakeAuditRepo struct {
	logs []*models.AuditLog
}

func (f *fakeAuditRepo) ByID(ctx context.Context, id uint) (*models.AuditLog, error) {
	for _, l := range f.logs {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, nil
}

func (f *fakeAuditRepo) ByFilter(ctx context.Context, filter models.AuditLogFilter, orderBy string, limit, offset int) ([]*models.AuditLog, error) {
	var out []*models.AuditLog
	for _, l := range f.logs {
		if filter.UserID != nil && (l.UserID == nil || *l.UserID != *filter.UserID) {
			continue
		}
		if filter.Action != nil && l.Action != *filter.Action {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeAuditRepo) Save(ctx context.Context, audit *models.AuditLog) error {
	audit.ID = uint(len(f.logs) + 1)
	f.logs = append(f.logs, audit)
	return nil
}

func (f *fakeAuditRepo) SaveBatch(ctx context.Context, audits []*models.AuditLog) error {
	for _, a := range audits {
		if err := f.Save(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeAuditRepo) Count(ctx context.Context, filter models.AuditLogFilter) (int64, error) {
	found, err := f.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(found)), err
}

func (f *fakeAuditRepo) Exists(ctx context.Context, filter models.AuditLogFilter) (bool, error) {
	found, err := f.ByFilter(ctx, filter, "", 0, 0)
	return len(found) > 0, err
}

func (f *fakeAuditRepo) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.AuditLog, error) {
	return f.ByFilter(ctx, models.AuditLogFilter{UserID: &userID}, "", limit, offset)
}

func (f *fakeAuditRepo) ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error) {
	return f.ByFilter(ctx, models.AuditLogFilter{Action: &action}, "", limit, offset)
}

func (f *fakeAuditRepo) ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error) {
	var out []*models.AuditLog
	for _, l := range f.logs {
		if l.IsFailed() {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeAuditRepo) actionsNamed(action string) int {
	n := 0
	for _, l := range f.logs {
		if l.Action == action {
			n++
		}
	}
	return n
}

type fakeCampaignCache struct {
	pages         map[string]*dto.CampaignHistoryResponse
	invalidations int
	getErr        error
}

func newFakeCampaignCache() *fakeCampaignCache {
	return &fakeCampaignCache{pages: make(map[string]*dto.CampaignHistoryResponse)}
}

func (f *fakeCampaignCache) key(userID uint, page, pageSize int) string {
	return fmt.Sprintf("%d:%d:%d", userID, page, pageSize)
}

func (f *fakeCampaignCache) GetHistory(ctx context.Context, userID uint, page, pageSize int) (*dto.CampaignHistoryResponse, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	cached, ok := f.pages[f.key(userID, page, pageSize)]
	if !ok {
		return nil, errors.New("cache miss")
	}
	return cached, nil
}

func (f *fakeCampaignCache) SetHistory(ctx context.Context, userID uint, page, pageSize int, response *dto.CampaignHistoryResponse) error {
	f.pages[f.key(userID, page, pageSize)] = response
	return nil
}

func (f *fakeCampaignCache) InvalidateUser(ctx context.Context, userID uint) error {
	f.invalidations++
	f.pages = make(map[string]*dto.CampaignHistoryResponse)
	return nil
}
