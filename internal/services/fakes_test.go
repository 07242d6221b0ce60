package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"auction-marketplace/internal/domain"
)

// memStore is an in-memory stand-in for the MySQL repositories.
type memStore struct {
	mu       sync.Mutex
	auctions map[int64]domain.Auction
	lots     map[int64]domain.LotItem
	bids     []domain.Bid
	users    map[int64]domain.BidderEligibility
	sellers  map[int64]bool
	jobs     map[string]domain.ScheduledJob
	nextID   int64

	// failWith, when set, is returned by every call.
	failWith error
}

func newMemStore() *memStore {
	return &memStore{
		auctions: make(map[int64]domain.Auction),
		lots:     make(map[int64]domain.LotItem),
		users:    make(map[int64]domain.BidderEligibility),
		sellers:  make(map[int64]bool),
		jobs:     make(map[string]domain.ScheduledJob),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) addAuction(a domain.Auction) domain.Auction {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == 0 {
		a.ID = m.id()
	}
	m.auctions[a.ID] = a
	return a
}

func (m *memStore) addLot(l domain.LotItem) domain.LotItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.ID == 0 {
		l.ID = m.id()
	}
	m.lots[l.ID] = l
	return l
}

func (m *memStore) addBidder(userID int64, isClientBidder bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userID] = domain.BidderEligibility{Exists: true, IsClientBidder: isClientBidder}
}

func (m *memStore) lot(id int64) domain.LotItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lots[id]
}

func (m *memStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.failWith != nil {
		return m.failWith
	}
	return fn(ctx)
}

func (m *memStore) CreateAuction(_ context.Context, a *domain.Auction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	a.ID = m.id()
	m.auctions[a.ID] = *a
	return nil
}

func (m *memStore) GetAuction(_ context.Context, id int64) (*domain.Auction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	a, ok := m.auctions[id]
	if !ok {
		return nil, fmt.Errorf("auction %d: %w", id, domain.ErrNotFound)
	}
	return &a, nil
}

func (m *memStore) UpdateAuction(_ context.Context, a *domain.Auction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.auctions[a.ID]; !ok {
		return domain.ErrNotFound
	}
	m.auctions[a.ID] = *a
	return nil
}

func (m *memStore) DeleteAuction(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.auctions[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.auctions, id)
	for lid, l := range m.lots {
		if l.AuctionID == id {
			delete(m.lots, lid)
		}
	}
	return nil
}

func (m *memStore) SetAuctionFlags(_ context.Context, id int64, isActive, isClosed bool, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.auctions[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.IsActive = isActive
	a.IsClosed = isClosed
	a.UpdatedAt = updatedAt
	m.auctions[id] = a
	return nil
}

func (m *memStore) sortedAuctions(keep func(domain.Auction) bool) []*domain.Auction {
	var out []*domain.Auction
	for _, a := range m.auctions {
		if keep(a) {
			a := a
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memStore) ListAuctionsBySeller(_ context.Context, sellerID int64) ([]*domain.Auction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedAuctions(func(a domain.Auction) bool { return a.SellerID == sellerID }), nil
}

func (m *memStore) ListUpcomingAuctions(_ context.Context, now time.Time, limit int) ([]*domain.Auction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.sortedAuctions(func(a domain.Auction) bool { return now.Before(a.LiveStart) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) ListLiveAuctions(_ context.Context, now time.Time, limit int) ([]*domain.Auction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.sortedAuctions(func(a domain.Auction) bool {
		return !now.Before(a.LiveStart) && !now.After(a.Closing)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) ListOpenAuctions(_ context.Context) ([]*domain.Auction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	return m.sortedAuctions(func(a domain.Auction) bool { return !a.IsClosed }), nil
}

func (m *memStore) CreateLotItem(_ context.Context, l *domain.LotItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.auctions[l.AuctionID]; !ok {
		return domain.ErrNotFound
	}
	l.ID = m.id()
	m.lots[l.ID] = *l
	return nil
}

func (m *memStore) GetLotItem(_ context.Context, auctionID, itemID int64) (*domain.LotItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	l, ok := m.lots[itemID]
	if !ok || l.AuctionID != auctionID {
		return nil, fmt.Errorf("lot item %d: %w", itemID, domain.ErrNotFound)
	}
	return &l, nil
}

func (m *memStore) GetLotItemForUpdate(ctx context.Context, auctionID, itemID int64) (*domain.LotItem, error) {
	return m.GetLotItem(ctx, auctionID, itemID)
}

func (m *memStore) ListLotItems(_ context.Context, auctionID int64) ([]*domain.LotItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.LotItem
	for _, l := range m.lots {
		if l.AuctionID == auctionID {
			l := l
			out = append(out, &l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) UpdateLotItemDetails(_ context.Context, l *domain.LotItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.lots[l.ID]
	if !ok || cur.AuctionID != l.AuctionID {
		return domain.ErrNotFound
	}
	l.IsBiddingActive = cur.IsBiddingActive
	l.IsSold = cur.IsSold
	l.WinningBidderID = cur.WinningBidderID
	l.CreatedAt = cur.CreatedAt
	m.lots[l.ID] = *l
	return nil
}

func (m *memStore) UpdateLotItemOutcome(_ context.Context, l *domain.LotItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.lots[l.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.IsBiddingActive = l.IsBiddingActive
	cur.IsSold = l.IsSold
	cur.WinningBidderID = l.WinningBidderID
	cur.UpdatedAt = l.UpdatedAt
	m.lots[l.ID] = cur
	return nil
}

func (m *memStore) DeleteLotItem(_ context.Context, auctionID, itemID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lots[itemID]
	if !ok || l.AuctionID != auctionID {
		return domain.ErrNotFound
	}
	delete(m.lots, itemID)
	return nil
}

func (m *memStore) DeleteAllLotItems(_ context.Context, auctionID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, l := range m.lots {
		if l.AuctionID == auctionID {
			delete(m.lots, id)
			n++
		}
	}
	return n, nil
}

func (m *memStore) InsertBid(_ context.Context, b *domain.Bid) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	l, ok := m.lots[b.ItemID]
	if !ok || l.AuctionID != b.AuctionID {
		return domain.ErrNotFound
	}
	b.ID = m.id()
	m.bids = append(m.bids, *b)
	return nil
}

func (m *memStore) lotBids(auctionID, itemID int64) []domain.Bid {
	var out []domain.Bid
	for _, b := range m.bids {
		if b.AuctionID == auctionID && b.ItemID == itemID {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID < out[j].ID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

func (m *memStore) LastBid(_ context.Context, auctionID, itemID int64) (*domain.Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bids := m.lotBids(auctionID, itemID)
	if len(bids) == 0 {
		return nil, nil
	}
	b := bids[len(bids)-1]
	return &b, nil
}

func (m *memStore) HighestBid(_ context.Context, auctionID, itemID int64) (*domain.Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *domain.Bid
	for _, b := range m.lotBids(auctionID, itemID) {
		b := b
		if best == nil || b.Amount.GreaterThan(best.Amount) {
			best = &b
		}
	}
	return best, nil
}

func (m *memStore) ListBids(_ context.Context, auctionID, itemID int64) ([]*domain.Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Bid
	for _, b := range m.lotBids(auctionID, itemID) {
		b := b
		out = append(out, &b)
	}
	return out, nil
}

func (m *memStore) LastUserBid(_ context.Context, auctionID, itemID, userID int64) (*domain.Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var last *domain.Bid
	for _, b := range m.lotBids(auctionID, itemID) {
		b := b
		if b.UserID == userID {
			last = &b
		}
	}
	return last, nil
}

func (m *memStore) GetBidderEligibility(_ context.Context, userID int64) (domain.BidderEligibility, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[userID], nil
}

func (m *memStore) SellerExists(_ context.Context, sellerID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sellers[sellerID], nil
}

func (m *memStore) CreateJob(_ context.Context, job *domain.ScheduledJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = *job
	return nil
}

func (m *memStore) GetPendingJobs(_ context.Context, before time.Time) ([]*domain.ScheduledJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.ScheduledJob
	for _, j := range m.jobs {
		if j.Status == domain.JobPending && !j.RunAt.After(before) {
			j := j
			out = append(out, &j)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RunAt.Before(out[j].RunAt) })
	return out, nil
}

func (m *memStore) UpdateJobStatus(_ context.Context, jobID string, status domain.JobStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	j.Status = status
	m.jobs[jobID] = j
	return nil
}

func (m *memStore) CancelJobsForAuction(_ context.Context, auctionID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, j := range m.jobs {
		if j.AuctionID == auctionID && j.Status == domain.JobPending {
			j.Status = domain.JobCancelled
			m.jobs[id] = j
		}
	}
	return nil
}

func (m *memStore) jobsFor(auctionID int64) []domain.ScheduledJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ScheduledJob
	for _, j := range m.jobs {
		if j.AuctionID == auctionID {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RunAt.Before(out[j].RunAt) })
	return out
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.BidEvent
	err    error
}

func (p *recordingPublisher) PublishBidEvent(_ context.Context, e *domain.BidEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *e)
	return p.err
}

func (p *recordingPublisher) ofType(t domain.BidEventType) []domain.BidEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.BidEvent
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type memSnapshots struct {
	mu   sync.Mutex
	byID map[string]domain.LotSnapshot
}

func (s *memSnapshots) StoreSnapshot(_ context.Context, snap *domain.LotSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.byID == nil {
		s.byID = make(map[string]domain.LotSnapshot)
	}
	s.byID[fmt.Sprintf("%d:%d", snap.AuctionID, snap.ItemID)] = *snap
	return nil
}

func (s *memSnapshots) GetSnapshot(_ context.Context, auctionID, itemID int64) (*domain.LotSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.byID[fmt.Sprintf("%d:%d", auctionID, itemID)]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

type staticLeader struct {
	leader bool
	err    error
}

func (s staticLeader) BecomeLeader(context.Context, string) (bool, error) { return s.leader, s.err }
func (s staticLeader) IsLeader(context.Context, string) (bool, error)     { return s.leader, s.err }
func (s staticLeader) ReleaseLeadership(context.Context, string) error    { return nil }
