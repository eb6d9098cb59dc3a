package stock

import (
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

func toEntryResponse(e *entity.LedgerEntry) dto.LedgerEntryResponse {
	return dto.LedgerEntryResponse{
		ID:              e.ID,
		ItemID:          e.ItemID,
		ItemName:        e.ItemName,
		DesignCode:      e.DesignCode,
		MetalType:       e.MetalType,
		Purity:          e.Purity,
		TransactionType: string(e.TransactionType),
		ReferenceType:   string(e.ReferenceType),
		ReferenceID:     e.ReferenceID,
		QuantityIn:      e.QuantityIn,
		QuantityOut:     e.QuantityOut,
		WeightIn:        e.WeightIn,
		WeightOut:       e.WeightOut,
		UnitCost:        e.UnitCost,
		TotalValue:      e.TotalValue,
		RunningQuantity: e.RunningQuantity,
		RunningWeight:   e.RunningWeight,
		RunningValue:    e.RunningValue,
		ValuationMethod: e.ValuationMethod,
		Notes:           e.Notes,
		Sequence:        e.Sequence,
		CreatedBy:       e.CreatedBy,
		CreatedAt:       e.CreatedAt,
	}
}

func toEntryResponses(entries []*entity.LedgerEntry) []dto.LedgerEntryResponse {
	out := make([]dto.LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	return out
}

func toItemResponse(i *entity.Item) dto.ItemResponse {
	return dto.ItemResponse{
		ID:           i.ID,
		CategoryID:   i.CategoryID,
		Name:         i.Name,
		DesignCode:   i.DesignCode,
		MetalType:    i.MetalType,
		Purity:       i.Purity,
		Quantity:     i.Quantity,
		Weight:       i.Weight,
		SellingPrice: i.SellingPrice,
		Status:       i.Status,
	}
}

func toAdjustmentResponse(a *entity.Adjustment) dto.AdjustmentResponse {
	lines := make([]dto.AdjustmentLineResponse, 0, len(a.Lines))
	for _, l := range a.Lines {
		lines = append(lines, dto.AdjustmentLineResponse{
			LineNo:             l.LineNo,
			ItemID:             l.ItemID,
			ItemName:           l.ItemName,
			DesignCode:         l.DesignCode,
			MetalType:          l.MetalType,
			Purity:             l.Purity,
			SystemQuantity:     l.SystemQuantity,
			SystemWeight:       l.SystemWeight,
			AdjustedQuantity:   l.AdjustedQuantity,
			AdjustedWeight:     l.AdjustedWeight,
			QuantityDifference: l.QuantityDifference,
			WeightDifference:   l.WeightDifference,
			UnitCost:           l.UnitCost,
			ValueDifference:    l.ValueDifference,
			Reason:             l.Reason,
			LedgerEntryID:      l.LedgerEntryID,
			AppliedAt:          l.AppliedAt,
		})
	}
	return dto.AdjustmentResponse{
		ID:                    a.ID,
		Number:                a.Number,
		Type:                  string(a.Type),
		Reason:                string(a.Reason),
		Status:                string(a.Status),
		Lines:                 lines,
		TotalQuantityAdjusted: a.TotalQuantityAdjusted,
		TotalWeightAdjusted:   a.TotalWeightAdjusted,
		TotalValueAdjusted:    a.TotalValueAdjusted,
		Notes:                 a.Notes,
		ReconciliationID:      a.ReconciliationID,
		AdjustmentDate:        a.AdjustmentDate,
		CreatedBy:             a.CreatedBy,
		CreatedAt:             a.CreatedAt,
		ApprovedBy:            a.ApprovedBy,
		ApprovedAt:            a.ApprovedAt,
	}
}

func toReconciliationResponse(r *entity.Reconciliation) dto.ReconciliationResponse {
	lines := make([]dto.ReconciliationLineResponse, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, dto.ReconciliationLineResponse{
			LineNo:           l.LineNo,
			ItemID:           l.ItemID,
			ItemName:         l.ItemName,
			DesignCode:       l.DesignCode,
			MetalType:        l.MetalType,
			Purity:           l.Purity,
			SystemQuantity:   l.SystemQuantity,
			PhysicalQuantity: l.PhysicalQuantity,
			Difference:       l.Difference,
			UnitPrice:        l.UnitPrice,
			ValueDifference:  l.ValueDifference,
		})
	}
	return dto.ReconciliationResponse{
		ID:                    r.ID,
		Number:                r.Number,
		Status:                string(r.Status),
		Lines:                 lines,
		TotalItemsCounted:     r.TotalItemsCounted,
		TotalDiscrepancies:    r.TotalDiscrepancies,
		TotalValueDiscrepancy: r.TotalValueDiscrepancy,
		Notes:                 r.Notes,
		AdjustmentID:          r.AdjustmentID,
		ReconciliationDate:    r.ReconciliationDate,
		CreatedBy:             r.CreatedBy,
		CreatedAt:             r.CreatedAt,
		CompletedBy:           r.CompletedBy,
		CompletedAt:           r.CompletedAt,
	}
}
