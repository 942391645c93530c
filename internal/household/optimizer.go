package household

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jmcalister/ozreturn/internal/tax"
	"github.com/jmcalister/ozreturn/internal/taxconfig"
)

// MaxSharedDeductions caps the combined deduction pool. The search is 2^n,
// so the caller must fail fast rather than let the enumeration degrade.
const MaxSharedDeductions = 20

// parallelThreshold is the pool size above which the enumeration fans out
// across workers; below it a single pass is faster than the coordination.
const parallelThreshold = 10

// Allocation is the optimizer's result: both taxpayers with their assigned
// deductions, their family-status liabilities, and the combined total.
type Allocation struct {
	First           Individual
	Second          Individual
	FirstLiability  tax.Liability
	SecondLiability tax.Liability
	Total           decimal.Decimal
}

// Optimize exhaustively enumerates every split of the couple's combined
// deduction pool, computes both liabilities under family filing status for
// each split, and returns the split minimizing the summed total. Ties keep
// the first split enumerated (ascending bitmask, bit set = second taxpayer
// claims the deduction).
//
// The search is deliberately exhaustive: family-levy apportionment is
// non-linear in each taxpayer's share of combined income, so a greedy
// bracket-fill can miss the true minimum.
func Optimize(cfg taxconfig.FYConfig, first, second Individual) (Allocation, error) {
	if err := first.Validate(); err != nil {
		return Allocation{}, err
	}
	if err := second.Validate(); err != nil {
		return Allocation{}, err
	}
	if first.FY != second.FY {
		return Allocation{}, fmt.Errorf("taxpayers are in different fiscal years (FY%d vs FY%d)", first.FY, second.FY)
	}

	pool := make([]decimal.Decimal, 0, len(first.Deductions)+len(second.Deductions))
	pool = append(pool, first.Deductions...)
	pool = append(pool, second.Deductions...)
	n := len(pool)
	if n > MaxSharedDeductions {
		return Allocation{}, fmt.Errorf("deduction pool of %d exceeds the %d-entry search cap", n, MaxSharedDeductions)
	}

	ev := &evaluator{
		cfg:        cfg,
		pool:       pool,
		firstBase:  first.withDeductions(nil).TaxableIncome(),
		secondBase: second.withDeductions(nil).TaxableIncome(),
		dependents: first.Dependents + second.Dependents,
		firstIn:    first,
		secondIn:   second,
	}

	best := ev.search(uint64(1) << n)

	firstDed, secondDed := splitPool(pool, best.mask)
	firstOut := first.withDeductions(firstDed)
	secondOut := second.withDeductions(secondDed)

	return Allocation{
		First:           firstOut,
		Second:          secondOut,
		FirstLiability:  best.first,
		SecondLiability: best.second,
		Total:           best.total,
	}, nil
}

type candidate struct {
	mask   uint64
	total  decimal.Decimal
	first  tax.Liability
	second tax.Liability
}

type evaluator struct {
	cfg        taxconfig.FYConfig
	pool       []decimal.Decimal
	firstBase  decimal.Decimal
	secondBase decimal.Decimal
	dependents int
	firstIn    Individual
	secondIn   Individual
}

// evaluate computes both family-status liabilities for one split.
func (ev *evaluator) evaluate(mask uint64) candidate {
	firstTaxable := ev.firstBase
	secondTaxable := ev.secondBase
	for i, d := range ev.pool {
		if mask&(1<<uint(i)) != 0 {
			secondTaxable = secondTaxable.Sub(d)
		} else {
			firstTaxable = firstTaxable.Sub(d)
		}
	}

	firstLia := tax.Compute(ev.cfg, tax.Input{
		TaxableIncome: firstTaxable,
		Status:        tax.Family,
		Dependents:    ev.dependents,
		PrivateCover:  ev.firstIn.PrivateCover,
		PartnerIncome: secondTaxable,
	})
	secondLia := tax.Compute(ev.cfg, tax.Input{
		TaxableIncome: secondTaxable,
		Status:        tax.Family,
		Dependents:    ev.dependents,
		PrivateCover:  ev.secondIn.PrivateCover,
		PartnerIncome: firstTaxable,
	})

	return candidate{
		mask:   mask,
		total:  firstLia.Total.Add(secondLia.Total),
		first:  firstLia,
		second: secondLia,
	}
}

// search scans all splits, fanning out across workers for larger pools.
// Every split is independent and the merge is a minimum-reduction, so the
// result is identical regardless of execution order.
func (ev *evaluator) search(splits uint64) candidate {
	if splits <= 1<<parallelThreshold {
		return ev.scan(0, splits)
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > int(splits) {
		workers = int(splits)
	}
	chunk := splits / uint64(workers)

	results := make([]candidate, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := uint64(w) * chunk
		end := start + chunk
		if w == workers-1 {
			end = splits
		}
		wg.Add(1)
		go func(w int, start, end uint64) {
			defer wg.Done()
			results[w] = ev.scan(start, end)
		}(w, start, end)
	}
	wg.Wait()

	best := results[0]
	for _, c := range results[1:] {
		if better(c, best) {
			best = c
		}
	}
	return best
}

// scan evaluates masks in [start, end) and keeps the best.
func (ev *evaluator) scan(start, end uint64) candidate {
	best := ev.evaluate(start)
	for mask := start + 1; mask < end; mask++ {
		if c := ev.evaluate(mask); better(c, best) {
			best = c
		}
	}
	return best
}

// better prefers the strictly lower total; equal totals keep the lower mask
// so the first split enumerated wins ties deterministically.
func better(a, b candidate) bool {
	switch a.total.Cmp(b.total) {
	case -1:
		return true
	case 1:
		return false
	}
	return a.mask < b.mask
}

func splitPool(pool []decimal.Decimal, mask uint64) ([]decimal.Decimal, []decimal.Decimal) {
	var first, second []decimal.Decimal
	for i, d := range pool {
		if mask&(1<<uint(i)) != 0 {
			second = append(second, d)
		} else {
			first = append(first, d)
		}
	}
	return first, second
}
