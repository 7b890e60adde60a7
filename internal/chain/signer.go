package chain

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

var ErrInvalidSignature = errors.New("invalid signature")

// ClaimMessage 待签名的累计领取授权
type ClaimMessage struct {
	ClaimType        ClaimType
	ProjectID        int64
	UserID           int64
	Recipient        common.Address
	CumulativeAmount *big.Int
	Deadline         int64 // unix 秒
}

var claimFields = []apitypes.Type{
	{Name: "projectId", Type: "bytes32"},
	{Name: "userId", Type: "uint256"},
	{Name: "recipient", Type: "address"},
	{Name: "cumulativeAmount", Type: "uint256"},
	{Name: "deadline", Type: "uint256"},
}

var domainFields = []apitypes.Type{
	{Name: "name", Type: "string"},
	{Name: "version", Type: "string"},
	{Name: "chainId", Type: "uint256"},
	{Name: "verifyingContract", Type: "address"},
}

// PrimaryType 领取类型对应的签名结构名
func (c ClaimType) PrimaryType() string {
	if c == ClaimTypeReward {
		return "RewardClaim"
	}
	return "RefundClaim"
}

// Signer 服务端签名者
type Signer struct {
	key    *ecdsa.PrivateKey
	domain apitypes.TypedDataDomain
}

// NewSigner 创建签名者，域绑定链ID与资金库地址
func NewSigner(privateKeyHex, name, version string, chainID int64, vault common.Address) (*Signer, error) {
	if privateKeyHex == "" {
		return nil, errors.New("signer private key is empty")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return &Signer{
		key: key,
		domain: apitypes.TypedDataDomain{
			Name:              name,
			Version:           version,
			ChainId:           math.NewHexOrDecimal256(chainID),
			VerifyingContract: vault.Hex(),
		},
	}, nil
}

// Address 签名者地址
func (s *Signer) Address() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

// TypedData 构造类型化数据
func (s *Signer) TypedData(msg ClaimMessage) apitypes.TypedData {
	primary := msg.ClaimType.PrimaryType()
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": domainFields,
			primary:        claimFields,
		},
		PrimaryType: primary,
		Domain:      s.domain,
		Message: apitypes.TypedDataMessage{
			"projectId":        ProjectIDToBytes32(msg.ProjectID).Hex(),
			"userId":           UserIDToBig(msg.UserID),
			"recipient":        msg.Recipient.Hex(),
			"cumulativeAmount": new(big.Int).Set(msg.CumulativeAmount),
			"deadline":         big.NewInt(msg.Deadline),
		},
	}
}

// SignClaim 签名，返回 65 字节 r||s||v，v 为 27/28
func (s *Signer) SignClaim(msg ClaimMessage) ([]byte, error) {
	if msg.CumulativeAmount == nil || msg.CumulativeAmount.Sign() <= 0 {
		return nil, errors.New("cumulative amount must be positive")
	}

	hash, _, err := apitypes.TypedDataAndHash(s.TypedData(msg))
	if err != nil {
		return nil, fmt.Errorf("failed to hash typed data: %w", err)
	}

	sig, err := crypto.Sign(hash, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign claim: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// RecoverSigner 从签名恢复签名者地址
func RecoverSigner(td apitypes.TypedData, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, ErrInvalidSignature
	}
	hash, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to hash typed data: %w", err)
	}

	normalized := make([]byte, len(sig))
	copy(normalized, sig)
	if normalized[crypto.RecoveryIDOffset] >= 27 {
		normalized[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(hash, normalized)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
