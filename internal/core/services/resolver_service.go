package services

import (
	"context"
	"fmt"

	"github.com/poslink/loyalty-relay/internal/apperrors"
	"github.com/poslink/loyalty-relay/internal/core/domain"
	portssvc "github.com/poslink/loyalty-relay/internal/core/ports/services"
	"github.com/poslink/loyalty-relay/internal/utils"
)

type memberResolverSvc struct {
	loyalty portssvc.MemberReaderSvc
}

// NewMemberResolverService creates the resolver over the loyalty backend's
// member queries.
func NewMemberResolverService(loyalty portssvc.MemberReaderSvc) portssvc.MemberResolverSvc {
	return &memberResolverSvc{loyalty: loyalty}
}

var _ portssvc.MemberResolverSvc = (*memberResolverSvc)(nil)

// Resolve dispatches to the lookup matching the identifier kind. Phone numbers
// are reduced to digits before querying so formatting never causes a miss;
// identifiers that cannot possibly match skip the backend call entirely.
func (s *memberResolverSvc) Resolve(ctx context.Context, identifier string, kind domain.IdentifierKind) (*domain.MemberLookupResult, error) {
	if identifier == "" {
		return nil, fmt.Errorf("%w: empty identifier", apperrors.ErrValidation)
	}

	switch kind {
	case domain.IdentifierPhone:
		normalized := utils.NormalizePhone(identifier)
		if normalized == "" {
			return nil, fmt.Errorf("%w: phone %q has no digits", apperrors.ErrValidation, identifier)
		}
		if !utils.IsValidPhone(normalized) {
			return nil, fmt.Errorf("%w: phone %q is not a plausible US number", apperrors.ErrValidation, identifier)
		}
		return s.loyalty.LookupMemberByPhone(ctx, normalized)
	case domain.IdentifierEmail:
		if !utils.IsValidEmail(identifier) {
			return nil, fmt.Errorf("%w: %q is not an email address", apperrors.ErrValidation, identifier)
		}
		return s.loyalty.LookupMemberByEmail(ctx, identifier)
	case domain.IdentifierNumber:
		return s.loyalty.LookupMemberByNumber(ctx, identifier)
	default:
		return nil, fmt.Errorf("%w: unknown identifier kind %q", apperrors.ErrValidation, kind)
	}
}
