package cosmos

import (
	"fmt"

	"wallet-signer/pkg/crypto_util"
	"wallet-signer/pkg/signing"

	basev1beta1 "cosmossdk.io/api/cosmos/base/v1beta1"
	ed25519pk "cosmossdk.io/api/cosmos/crypto/ed25519"
	secp256k1pk "cosmossdk.io/api/cosmos/crypto/secp256k1"
	txv1beta1 "cosmossdk.io/api/cosmos/tx/v1beta1"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"
)

// 签名字节必须可复现
var marshalOpts = proto.MarshalOptions{Deterministic: true}

var _ signing.Transaction = (*UnsignedTransaction)(nil)

func (tx *UnsignedTransaction) Chain() signing.Chain { return signing.ChainCosmos }

func (tx *UnsignedTransaction) txBody() *txv1beta1.TxBody {
	msgs := make([]*anypb.Any, len(tx.Messages))
	for i, m := range tx.Messages {
		msgs[i] = &anypb.Any{TypeUrl: m.TypeURL, Value: m.Value}
	}
	return &txv1beta1.TxBody{
		Messages:      msgs,
		Memo:          tx.Memo,
		TimeoutHeight: tx.TimeoutHeight,
	}
}

func (tx *UnsignedTransaction) authInfo() (*txv1beta1.AuthInfo, error) {
	mode, err := tx.SignMode.proto()
	if err != nil {
		return nil, err
	}
	pubKey, err := tx.pubKeyAny()
	if err != nil {
		return nil, err
	}

	amount := make([]*basev1beta1.Coin, len(tx.Fee.Amount))
	for i, c := range tx.Fee.Amount {
		amount[i] = &basev1beta1.Coin{Denom: c.Denom, Amount: c.Amount}
	}

	return &txv1beta1.AuthInfo{
		SignerInfos: []*txv1beta1.SignerInfo{{
			PublicKey: pubKey,
			ModeInfo: &txv1beta1.ModeInfo{
				Sum: &txv1beta1.ModeInfo_Single_{Single: &txv1beta1.ModeInfo_Single{Mode: mode}},
			},
			Sequence: tx.Signer.Sequence,
		}},
		Fee: &txv1beta1.Fee{
			Amount:   amount,
			GasLimit: tx.Fee.GasLimit,
			Payer:    tx.Fee.Payer,
			Granter:  tx.Fee.Granter,
		},
	}, nil
}

// pubKeyAny packs the signer public key; nil when the key is not known yet.
func (tx *UnsignedTransaction) pubKeyAny() (*anypb.Any, error) {
	key := tx.Signer.PublicKey
	if len(key) == 0 {
		return nil, nil
	}

	var (
		typeURL string
		msg     proto.Message
	)
	switch kt := tx.Signer.keyType(); kt {
	case KeyTypeSecp256k1:
		if len(key) != 33 {
			return nil, signing.InvalidTransaction("secp256k1 public key must be 33 bytes, got %d", len(key))
		}
		typeURL, msg = secp256k1TypeURL, &secp256k1pk.PubKey{Key: key}
	case KeyTypeEd25519:
		if len(key) != 32 {
			return nil, signing.InvalidTransaction("ed25519 public key must be 32 bytes, got %d", len(key))
		}
		typeURL, msg = ed25519TypeURL, &ed25519pk.PubKey{Key: key}
	default:
		typeURL, msg = kt, &secp256k1pk.PubKey{Key: key}
	}

	value, err := marshalOpts.Marshal(msg)
	if err != nil {
		return nil, signing.EncodingError("public key: %v", err)
	}
	return &anypb.Any{TypeUrl: typeURL, Value: value}, nil
}

// encode 返回 TxBody 与 AuthInfo 的确定性 protobuf 编码
func (tx *UnsignedTransaction) encode() (bodyBytes, authInfoBytes []byte, err error) {
	if err := tx.validate(); err != nil {
		return nil, nil, err
	}
	if bodyBytes, err = marshalOpts.Marshal(tx.txBody()); err != nil {
		return nil, nil, signing.EncodingError("tx body: %v", err)
	}
	auth, err := tx.authInfo()
	if err != nil {
		return nil, nil, err
	}
	if authInfoBytes, err = marshalOpts.Marshal(auth); err != nil {
		return nil, nil, signing.EncodingError("auth info: %v", err)
	}
	return bodyBytes, authInfoBytes, nil
}

func directSignBytes(tx *UnsignedTransaction, bodyBytes, authInfoBytes []byte) ([]byte, error) {
	doc := &txv1beta1.SignDoc{
		BodyBytes:     bodyBytes,
		AuthInfoBytes: authInfoBytes,
		ChainId:       tx.ChainID,
		AccountNumber: tx.Signer.AccountNumber,
	}
	out, err := marshalOpts.Marshal(doc)
	if err != nil {
		return nil, signing.EncodingError("sign doc: %v", err)
	}
	return out, nil
}

// SignBytes returns the document the signer key signs under tx.SignMode.
// secp256k1 keys sign its SHA-256; ed25519 keys sign it directly.
func SignBytes(tx *UnsignedTransaction) ([]byte, error) {
	bodyBytes, authInfoBytes, err := tx.encode()
	if err != nil {
		return nil, err
	}
	switch tx.SignMode {
	case SignModeDirect:
		return directSignBytes(tx, bodyBytes, authInfoBytes)
	case SignModeAmino:
		return aminoSignBytes(tx)
	case SignModeTextual:
		return textualSignBytes(tx, bodyBytes, authInfoBytes)
	}
	return nil, signing.UnsupportedType(string(tx.SignMode))
}

// PreImages Cosmos 交易只有一个签名者
func (tx *UnsignedTransaction) PreImages() ([]signing.PreImageHash, error) {
	signBytes, err := SignBytes(tx)
	if err != nil {
		return nil, err
	}

	p := signing.PreImageHash{
		Hash:        crypto_util.SHA256(signBytes),
		SignerID:    tx.signerID(),
		Algorithm:   tx.algorithm(),
		InputIndex:  0,
		Description: fmt.Sprintf("Cosmos %s tx on %s: %d message(s)", tx.SignMode, tx.ChainID, len(tx.Messages)),
	}
	if p.Algorithm == signing.Ed25519 {
		p.Message = signBytes
	}
	return []signing.PreImageHash{p}, nil
}

func (tx *UnsignedTransaction) signerID() string {
	switch {
	case tx.Signer.DerivationPath != "":
		return tx.Signer.DerivationPath
	case tx.Signer.Address != "":
		return tx.Signer.Address
	}
	return "signer_0"
}
