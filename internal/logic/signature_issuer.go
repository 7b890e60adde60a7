package logic

import (
	"context"
	"math/big"
	"time"

	"github.com/CalistoMango/TheShipyard-sub001/internal/chain"
	"github.com/CalistoMango/TheShipyard-sub001/internal/logger"
	"github.com/CalistoMango/TheShipyard-sub001/internal/metrics"
	"github.com/ethereum/go-ethereum/common"
	"github.com/jonboulle/clockwork"
)

// SignatureValidity 签名有效期
const SignatureValidity = 10 * time.Minute

// ClaimStateReader 读取链上累计已领取金额
type ClaimStateReader interface {
	ReadClaimed(ctx context.Context, projectID, userID int64, claimType chain.ClaimType) (*big.Int, error)
}

// ClaimSigner 领取授权签名
type ClaimSigner interface {
	SignClaim(msg chain.ClaimMessage) ([]byte, error)
	Address() common.Address
}

// SignedClaim 已签名的累计领取授权
type SignedClaim struct {
	ClaimType        chain.ClaimType
	ProjectId        int64
	UserId           int64
	Recipient        common.Address
	CumulativeAmount int64
	OnChainClaimed   int64
	Delta            int64
	Deadline         int64
	Signature        []byte
	Signer           common.Address
	Reward           *RewardEntitlement // 仅奖励
}

// SignatureIssuer 先读取链上状态，再计算并签名
type SignatureIssuer struct {
	reader     ClaimStateReader
	calculator *ClaimCalculator
	signer     ClaimSigner
	clock      clockwork.Clock
}

// NewSignatureIssuer 创建签名发放器
func NewSignatureIssuer(reader ClaimStateReader, calculator *ClaimCalculator, signer ClaimSigner, clock clockwork.Clock) *SignatureIssuer {
	return &SignatureIssuer{
		reader:     reader,
		calculator: calculator,
		signer:     signer,
		clock:      clock,
	}
}

// readClaimed 链上读取失败时拒绝签名，不按零处理
func (s *SignatureIssuer) readClaimed(ctx context.Context, projectId, userId int64, claimType chain.ClaimType) (*big.Int, error) {
	start := s.clock.Now()
	claimed, err := s.reader.ReadClaimed(ctx, projectId, userId, claimType)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.ChainReadDuration.WithLabelValues("claimed", status).Observe(s.clock.Since(start).Seconds())

	if err != nil {
		logger.Error("Failed to read on-chain claimed for project %d user %d (%s): %v", projectId, userId, claimType, err)
		metrics.SignatureRejectionsTotal.WithLabelValues(claimType.String(), KindChainUnavailable.String()).Inc()
		return nil, chainError(err)
	}
	return claimed, nil
}

// IssueRefund 发放退款签名
func (s *SignatureIssuer) IssueRefund(ctx context.Context, projectId, userId int64, recipient common.Address) (*SignedClaim, error) {
	claimed, err := s.readClaimed(ctx, projectId, userId, chain.ClaimTypeRefund)
	if err != nil {
		return nil, err
	}

	ent, err := s.calculator.Refund(ctx, projectId, userId, claimed)
	if err != nil {
		metrics.SignatureRejectionsTotal.WithLabelValues(chain.ClaimTypeRefund.String(), KindOf(err).String()).Inc()
		return nil, err
	}

	signed, err := s.sign(chain.ClaimTypeRefund, projectId, userId, recipient, ent.CumulativeAmount)
	if err != nil {
		return nil, err
	}
	signed.OnChainClaimed = ent.OnChainClaimed
	signed.Delta = ent.Delta
	return signed, nil
}

// IssueReward 发放奖励签名
func (s *SignatureIssuer) IssueReward(ctx context.Context, projectId, userId int64, recipient common.Address) (*SignedClaim, error) {
	claimed, err := s.readClaimed(ctx, projectId, userId, chain.ClaimTypeReward)
	if err != nil {
		return nil, err
	}

	ent, err := s.calculator.Reward(ctx, projectId, userId, claimed)
	if err != nil {
		metrics.SignatureRejectionsTotal.WithLabelValues(chain.ClaimTypeReward.String(), KindOf(err).String()).Inc()
		return nil, err
	}

	signed, err := s.sign(chain.ClaimTypeReward, projectId, userId, recipient, ent.CumulativeAmount)
	if err != nil {
		return nil, err
	}
	signed.OnChainClaimed = ent.OnChainClaimed
	signed.Delta = ent.Delta
	signed.Reward = ent
	return signed, nil
}

func (s *SignatureIssuer) sign(claimType chain.ClaimType, projectId, userId int64, recipient common.Address, cumulative int64) (*SignedClaim, error) {
	deadline := s.clock.Now().Add(SignatureValidity).Unix()

	sig, err := s.signer.SignClaim(chain.ClaimMessage{
		ClaimType:        claimType,
		ProjectID:        projectId,
		UserID:           userId,
		Recipient:        recipient,
		CumulativeAmount: big.NewInt(cumulative),
		Deadline:         deadline,
	})
	if err != nil {
		logger.Error("Failed to sign %s claim for project %d user %d: %v", claimType, projectId, userId, err)
		return nil, wrapError(KindInternal, err, "签名失败")
	}

	metrics.SignaturesIssuedTotal.WithLabelValues(claimType.String()).Inc()
	logger.Info("Issued %s signature for project %d user %d, cumulative %d", claimType, projectId, userId, cumulative)

	return &SignedClaim{
		ClaimType:        claimType,
		ProjectId:        projectId,
		UserId:           userId,
		Recipient:        recipient,
		CumulativeAmount: cumulative,
		Deadline:         deadline,
		Signature:        sig,
		Signer:           s.signer.Address(),
	}, nil
}
