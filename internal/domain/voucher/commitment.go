package voucher

import (
	"encoding/binary"
	"encoding/hex"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// commitmentVersion is folded into the hash so a later scheme change can
// never produce a digest that collides with an older voucher.
const commitmentVersion = "v1"

type CommitmentInput struct {
	Secret                string
	IssuerAddress         string
	OrgExternalID         string
	RepoExternalID        string
	PRNumber              int64
	ContributorExternalID string
	Amount                int64
}

// Commitment binds every field that identifies a voucher into a single
// keccak256 digest. Fields are length-prefixed before hashing so that no
// two distinct inputs can serialize to the same byte stream.
func Commitment(in CommitmentInput) string {
	var buf []byte
	buf = appendField(buf, []byte(commitmentVersion))
	buf = appendField(buf, []byte(in.Secret))
	buf = appendField(buf, []byte(in.IssuerAddress))
	buf = appendField(buf, []byte(in.OrgExternalID))
	buf = appendField(buf, []byte(in.RepoExternalID))
	buf = appendInt64(buf, in.PRNumber)
	buf = appendField(buf, []byte(in.ContributorExternalID))
	buf = appendInt64(buf, in.Amount)

	return hex.EncodeToString(ethcrypto.Keccak256(buf))
}

func appendField(buf, field []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(field)))
	return append(buf, field...)
}

func appendInt64(buf []byte, v int64) []byte {
	buf = binary.BigEndian.AppendUint32(buf, 8)
	return binary.BigEndian.AppendUint64(buf, uint64(v))
}
