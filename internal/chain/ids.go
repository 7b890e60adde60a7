package chain

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var ErrAmountOverflow = errors.New("amount exceeds int64 range")

// ProjectIDToBytes32 项目ID左补零编码为 bytes32
func ProjectIDToBytes32(projectID int64) common.Hash {
	return common.BigToHash(big.NewInt(projectID))
}

// ProjectIDFromBytes32 解码 bytes32 项目ID，超出 int64 范围返回 false
func ProjectIDFromBytes32(h common.Hash) (int64, bool) {
	return BigToInt64(new(big.Int).SetBytes(h.Bytes()))
}

// UserIDToBig 用户ID转换为 uint256
func UserIDToBig(userID int64) *big.Int {
	return big.NewInt(userID)
}

// BigToInt64 非负且在 int64 范围内时返回 true
func BigToInt64(v *big.Int) (int64, bool) {
	if v == nil || v.Sign() < 0 || !v.IsInt64() {
		return 0, false
	}
	return v.Int64(), true
}
