package wire

import (
	"strconv"

	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/layer-3/clearport/core"
)

// PolicyTypedData builds the EIP-712 typed data record for the authentication
// policy. The domain is bound to the application name; the challenge itself is
// signed only as a field of the policy, never bare.
func PolicyTypedData(appName string, policy core.AuthPolicy) apitypes.TypedData {
	allowances := make([]interface{}, 0, len(policy.Allowances))
	for _, a := range policy.Allowances {
		allowances = append(allowances, map[string]interface{}{
			"asset":  a.Asset,
			"amount": a.Amount,
		})
	}

	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
			},
			"Policy": {
				{Name: "challenge", Type: "string"},
				{Name: "scope", Type: "string"},
				{Name: "wallet", Type: "address"},
				{Name: "application", Type: "address"},
				{Name: "participant", Type: "address"},
				{Name: "expire", Type: "uint256"},
				{Name: "allowances", Type: "Allowance[]"},
			},
			"Allowance": {
				{Name: "asset", Type: "string"},
				{Name: "amount", Type: "uint256"},
			},
		},
		PrimaryType: "Policy",
		Domain: apitypes.TypedDataDomain{
			Name: appName,
		},
		Message: apitypes.TypedDataMessage{
			"challenge":   policy.Challenge,
			"scope":       policy.Scope,
			"wallet":      policy.Wallet,
			"application": policy.Application,
			"participant": policy.Participant,
			"expire":      strconv.FormatInt(policy.Expire, 10),
			"allowances":  allowances,
		},
	}
}
