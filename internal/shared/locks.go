package shared

import (
	"fmt"
	"hash/fnv"
)

// ProductCostLockKey derives a stable pg advisory lock key used to serialize
// valuation recomputation per product. Two imports touching the same product
// block each other; different products proceed in parallel.
func ProductCostLockKey(productID int64) int64 {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "product:cost:%d", productID)
	return int64(h.Sum64())
}
