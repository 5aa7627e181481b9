package repository

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"clientparser/internal/domain"
)

// TableRouter maps subnets to lease table identifiers. It is safe for
// concurrent use.
type TableRouter struct {
	cache sync.Map // subnet -> table name
}

// NewTableRouter creates an empty router
func NewTableRouter() *TableRouter {
	return &TableRouter{}
}

// Table returns the table identifier for subnet, computing it at most once
func (r *TableRouter) Table(subnet string) (string, error) {
	if name, ok := r.cache.Load(subnet); ok {
		return name.(string), nil
	}

	name, err := TableName(subnet)
	if err != nil {
		return "", err
	}

	actual, _ := r.cache.LoadOrStore(subnet, name)
	return actual.(string), nil
}

// TableName derives the table identifier for subnet: private_<3rd octet>
// when the subnet begins "10", public_<3rd octet> otherwise
func TableName(subnet string) (string, error) {
	subnet = strings.TrimSpace(subnet)
	parts := strings.Split(subnet, ".")
	if len(parts) < 3 {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidSubnet, subnet)
	}

	octet, err := strconv.Atoi(parts[2])
	if err != nil || octet < 0 || octet > 255 || parts[2] != strconv.Itoa(octet) {
		return "", fmt.Errorf("%w: %q has no third octet", domain.ErrInvalidSubnet, subnet)
	}

	if strings.HasPrefix(subnet, "10") {
		return fmt.Sprintf("private_%d", octet), nil
	}
	return fmt.Sprintf("public_%d", octet), nil
}
