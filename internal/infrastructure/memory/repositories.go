package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var (
	_ repository.ItemRepository           = (*ItemRepository)(nil)
	_ repository.BalanceRepository        = (*BalanceRepository)(nil)
	_ repository.LedgerRepository         = (*LedgerRepository)(nil)
	_ repository.AdjustmentRepository     = (*AdjustmentRepository)(nil)
	_ repository.ReconciliationRepository = (*ReconciliationRepository)(nil)
	_ repository.SequenceRepository       = (*Store)(nil)
)

// ItemRepository registro de ítems en memoria.
type ItemRepository struct{ a accessor }

func (r *ItemRepository) Create(ctx context.Context, item *entity.Item) error {
	return r.a.update(func(s *state) error {
		if _, ok := s.items[item.ID]; ok {
			return domain.ErrDuplicate
		}
		for _, it := range s.items {
			if it.DesignCode == item.DesignCode {
				return domain.ErrDuplicate
			}
		}
		c := *item
		s.items[item.ID] = &c
		return nil
	})
}

func (r *ItemRepository) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	var out *entity.Item
	err := r.a.view(func(s *state) error {
		if it, ok := s.items[id]; ok {
			c := *it
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *ItemRepository) GetForUpdate(ctx context.Context, id string) (*entity.Item, error) {
	return r.GetByID(ctx, id)
}

func (r *ItemRepository) SetQuantity(ctx context.Context, id string, quantity int64) error {
	return r.a.update(func(s *state) error {
		it, ok := s.items[id]
		if !ok {
			return domain.ErrNotFound
		}
		it.Quantity = quantity
		return nil
	})
}

func (r *ItemRepository) find(match func(*entity.Item) bool) (*entity.Item, error) {
	var out *entity.Item
	err := r.a.view(func(s *state) error {
		for _, it := range s.items {
			if match(it) {
				c := *it
				out = &c
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *ItemRepository) FindByDesignCode(ctx context.Context, designCode string) (*entity.Item, error) {
	return r.find(func(it *entity.Item) bool { return it.DesignCode == designCode })
}

func (r *ItemRepository) FindByNameCaseInsensitive(ctx context.Context, name string) (*entity.Item, error) {
	return r.find(func(it *entity.Item) bool { return strings.EqualFold(it.Name, name) })
}

func (r *ItemRepository) List(ctx context.Context, f repository.ItemFilter) ([]*entity.Item, error) {
	var out []*entity.Item
	err := r.a.view(func(s *state) error {
		for _, it := range s.items {
			if f.MetalType != "" && it.MetalType != f.MetalType ||
				f.Purity != "" && it.Purity != f.Purity ||
				f.CategoryID != "" && it.CategoryID != f.CategoryID {
				continue
			}
			c := *it
			out = append(out, &c)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	return r.a.update(func(s *state) error {
		delete(s.items, id)
		return nil
	})
}

// BalanceRepository saldos materializados en memoria.
type BalanceRepository struct{ a accessor }

func (r *BalanceRepository) Get(ctx context.Context, itemID string) (*entity.StockBalance, error) {
	out := &entity.StockBalance{ItemID: itemID, Weight: decimal.Zero, Value: decimal.Zero}
	err := r.a.view(func(s *state) error {
		if b, ok := s.balances[itemID]; ok {
			*out = *b
		}
		return nil
	})
	return out, err
}

func (r *BalanceRepository) GetForUpdate(ctx context.Context, itemID string) (*entity.StockBalance, error) {
	return r.Get(ctx, itemID)
}

func (r *BalanceRepository) Save(ctx context.Context, b *entity.StockBalance) error {
	return r.a.update(func(s *state) error {
		c := *b
		s.balances[b.ItemID] = &c
		return nil
	})
}

func (r *BalanceRepository) Delete(ctx context.Context, itemID string) error {
	return r.a.update(func(s *state) error {
		delete(s.balances, itemID)
		return nil
	})
}

// LedgerRepository libro en memoria (solo inserción salvo la baja en cascada).
type LedgerRepository struct{ a accessor }

func (r *LedgerRepository) Append(ctx context.Context, e *entity.LedgerEntry) error {
	return r.a.update(func(s *state) error {
		for _, prev := range s.ledger {
			if prev.ItemID == e.ItemID && prev.Sequence == e.Sequence {
				return domain.ErrDuplicate
			}
		}
		c := *e
		s.ledger = append(s.ledger, &c)
		return nil
	})
}

func (r *LedgerRepository) GetByID(ctx context.Context, id string) (*entity.LedgerEntry, error) {
	var out *entity.LedgerEntry
	err := r.a.view(func(s *state) error {
		for _, e := range s.ledger {
			if e.ID == id {
				c := *e
				out = &c
			}
		}
		return nil
	})
	return out, err
}

func matchEntry(e *entity.LedgerEntry, f repository.LedgerFilter) bool {
	switch {
	case f.ItemID != "" && e.ItemID != f.ItemID,
		f.MetalType != "" && e.MetalType != f.MetalType,
		f.Purity != "" && e.Purity != f.Purity,
		f.TransactionType != "" && string(e.TransactionType) != f.TransactionType,
		f.From != nil && e.CreatedAt.Before(*f.From),
		f.To != nil && e.CreatedAt.After(*f.To):
		return false
	}
	return true
}

func (r *LedgerRepository) filter(f repository.LedgerFilter) ([]*entity.LedgerEntry, error) {
	var out []*entity.LedgerEntry
	err := r.a.view(func(s *state) error {
		for _, e := range s.ledger {
			if matchEntry(e, f) {
				c := *e
				out = append(out, &c)
			}
		}
		return nil
	})
	return out, err
}

func (r *LedgerRepository) Query(ctx context.Context, f repository.LedgerFilter, limit, offset int) ([]*entity.LedgerEntry, int, error) {
	all, err := r.filter(f)
	if err != nil {
		return nil, 0, err
	}
	// inserción descendente: a igual created_at manda el orden de llegada
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	if offset >= total {
		return []*entity.LedgerEntry{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *LedgerRepository) ListByItem(ctx context.Context, itemID string) ([]*entity.LedgerEntry, error) {
	out, err := r.filter(repository.LedgerFilter{ItemID: itemID})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, err
}

func (r *LedgerRepository) ListInRange(ctx context.Context, from, to time.Time, metalType string) ([]*entity.LedgerEntry, error) {
	out, err := r.filter(repository.LedgerFilter{MetalType: metalType, From: &from, To: &to})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, err
}

func (r *LedgerRepository) DeleteByItem(ctx context.Context, itemID string) error {
	return r.a.update(func(s *state) error {
		kept := make([]*entity.LedgerEntry, 0, len(s.ledger))
		for _, e := range s.ledger {
			if e.ItemID != itemID {
				kept = append(kept, e)
			}
		}
		s.ledger = kept
		return nil
	})
}

// AdjustmentRepository ajustes en memoria.
type AdjustmentRepository struct{ a accessor }

func (r *AdjustmentRepository) Create(ctx context.Context, adj *entity.Adjustment) error {
	return r.a.update(func(s *state) error {
		if _, ok := s.adjustments[adj.ID]; ok {
			return domain.ErrDuplicate
		}
		for _, a := range s.adjustments {
			if a.Number == adj.Number {
				return domain.ErrDuplicate
			}
		}
		s.adjustments[adj.ID] = adj.Clone()
		return nil
	})
}

func (r *AdjustmentRepository) GetByID(ctx context.Context, id string) (*entity.Adjustment, error) {
	var out *entity.Adjustment
	err := r.a.view(func(s *state) error {
		if a, ok := s.adjustments[id]; ok {
			out = a.Clone()
		}
		return nil
	})
	return out, err
}

func (r *AdjustmentRepository) GetForUpdate(ctx context.Context, id string) (*entity.Adjustment, error) {
	return r.GetByID(ctx, id)
}

func (r *AdjustmentRepository) UpdateStatus(ctx context.Context, adj *entity.Adjustment) error {
	return r.a.update(func(s *state) error {
		cur, ok := s.adjustments[adj.ID]
		if !ok {
			return domain.ErrNotFound
		}
		cur.Status = adj.Status
		cur.ApprovedBy = adj.ApprovedBy
		cur.ApprovedAt = adj.ApprovedAt
		return nil
	})
}

func (r *AdjustmentRepository) MarkLineApplied(ctx context.Context, adjustmentID string, lineNo int, ledgerEntryID string, at time.Time) error {
	return r.a.update(func(s *state) error {
		cur, ok := s.adjustments[adjustmentID]
		if !ok {
			return domain.ErrNotFound
		}
		l := cur.Line(lineNo)
		if l == nil {
			return domain.ErrNotFound
		}
		l.LedgerEntryID = ledgerEntryID
		l.AppliedAt = &at
		return nil
	})
}

func (r *AdjustmentRepository) List(ctx context.Context, f repository.AdjustmentFilter, limit, offset int) ([]*entity.Adjustment, int, error) {
	var all []*entity.Adjustment
	err := r.a.view(func(s *state) error {
		for _, a := range s.adjustments {
			if f.Status != "" && string(a.Status) != f.Status ||
				f.Type != "" && string(a.Type) != f.Type ||
				f.Reason != "" && string(a.Reason) != f.Reason {
				continue
			}
			all = append(all, a.Clone())
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].Number > all[j].Number
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return paginate(all, limit, offset), len(all), nil
}

func (r *AdjustmentRepository) CountByStatus(ctx context.Context, status entity.AdjustmentStatus) (int, error) {
	n := 0
	err := r.a.view(func(s *state) error {
		for _, a := range s.adjustments {
			if a.Status == status {
				n++
			}
		}
		return nil
	})
	return n, err
}

// ReconciliationRepository conciliaciones en memoria.
type ReconciliationRepository struct{ a accessor }

func (r *ReconciliationRepository) Create(ctx context.Context, rec *entity.Reconciliation) error {
	return r.a.update(func(s *state) error {
		if _, ok := s.reconciliations[rec.ID]; ok {
			return domain.ErrDuplicate
		}
		s.reconciliations[rec.ID] = rec.Clone()
		return nil
	})
}

func (r *ReconciliationRepository) GetByID(ctx context.Context, id string) (*entity.Reconciliation, error) {
	var out *entity.Reconciliation
	err := r.a.view(func(s *state) error {
		if rec, ok := s.reconciliations[id]; ok {
			out = rec.Clone()
		}
		return nil
	})
	return out, err
}

func (r *ReconciliationRepository) GetForUpdate(ctx context.Context, id string) (*entity.Reconciliation, error) {
	return r.GetByID(ctx, id)
}

func (r *ReconciliationRepository) Update(ctx context.Context, rec *entity.Reconciliation) error {
	return r.a.update(func(s *state) error {
		cur, ok := s.reconciliations[rec.ID]
		if !ok {
			return domain.ErrNotFound
		}
		cur.Status = rec.Status
		cur.AdjustmentID = rec.AdjustmentID
		cur.CompletedBy = rec.CompletedBy
		cur.CompletedAt = rec.CompletedAt
		return nil
	})
}

func (r *ReconciliationRepository) List(ctx context.Context, status string, limit, offset int) ([]*entity.Reconciliation, int, error) {
	var all []*entity.Reconciliation
	err := r.a.view(func(s *state) error {
		for _, rec := range s.reconciliations {
			if status != "" && string(rec.Status) != status {
				continue
			}
			all = append(all, rec.Clone())
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].Number > all[j].Number
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return paginate(all, limit, offset), len(all), nil
}

func paginate[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return []T{}
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}
