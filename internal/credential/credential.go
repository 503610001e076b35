package credential

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"strings"
	"time"
)

var (
	ErrConfigInvalid     = errors.New("credential config invalid")
	ErrPinSpaceExhausted = errors.New("credential pin space exhausted")
	ErrPayloadInvalid    = errors.New("credential payload invalid")
)

const (
	defaultPinLength     = 4
	defaultPinMaxRetries = 10
	payloadSeparator     = "."
)

// ExistsFunc 判断 PIN 是否已被激活态卡券占用
type ExistsFunc func(pin string) (bool, error)

// Payload 可扫码加密载荷
// 载荷自描述（同时携带卡券ID与 PIN），但核销侧仍须逐字段比对库内记录
type Payload struct {
	VoucherID uint   `json:"voucher_id"`
	MemberID  uint   `json:"member_id"`
	Pin       string `json:"pin"`
	IssuedAt  int64  `json:"issued_at"`
	Purpose   string `json:"purpose"`
}

// Generator 核销凭证生成器
type Generator struct {
	key           []byte
	keyID         string
	pinLength     int
	pinMaxRetries int
}

// Options 生成器配置
type Options struct {
	Secret        string
	KeyID         string
	PinLength     int
	PinMaxRetries int
}

// NewGenerator 创建凭证生成器
func NewGenerator(opts Options) (*Generator, error) {
	secret := strings.TrimSpace(opts.Secret)
	if secret == "" {
		return nil, ErrConfigInvalid
	}
	keyID := strings.TrimSpace(opts.KeyID)
	if keyID == "" || strings.Contains(keyID, payloadSeparator) {
		return nil, ErrConfigInvalid
	}
	pinLength := opts.PinLength
	if pinLength < 4 || pinLength > 10 {
		pinLength = defaultPinLength
	}
	maxRetries := opts.PinMaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultPinMaxRetries
	}
	// 密钥从配置口令派生，长度固定满足 AES-256
	key := sha256.Sum256([]byte(secret))
	return &Generator{
		key:           key[:],
		keyID:         keyID,
		pinLength:     pinLength,
		pinMaxRetries: maxRetries,
	}, nil
}

// PinLength 返回 PIN 位数
func (g *Generator) PinLength() int {
	if g == nil {
		return defaultPinLength
	}
	return g.pinLength
}

// GenerateUniquePin 采样生成未被占用的定长数字 PIN
// 重试次数耗尽说明激活 PIN 空间接近饱和，返回 ErrPinSpaceExhausted 提示扩位
func (g *Generator) GenerateUniquePin(exists ExistsFunc) (string, error) {
	if g == nil {
		return "", ErrConfigInvalid
	}
	for i := 0; i < g.pinMaxRetries; i++ {
		pin, err := randomNumericPin(g.pinLength)
		if err != nil {
			return "", err
		}
		if exists == nil {
			return pin, nil
		}
		taken, err := exists(pin)
		if err != nil {
			return "", err
		}
		if !taken {
			return pin, nil
		}
	}
	return "", ErrPinSpaceExhausted
}

// EncryptPayload 序列化并对称加密载荷，输出适合光学传输的不透明串
// 输出格式：keyId.base64url(nonce|ciphertext)，keyId 明文前置以支持密钥轮换
func (g *Generator) EncryptPayload(payload Payload) (string, error) {
	if g == nil {
		return "", ErrConfigInvalid
	}
	if payload.IssuedAt == 0 {
		payload.IssuedAt = time.Now().Unix()
	}
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(g.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nonce, nonce, plaintext, []byte(g.keyID))
	return g.keyID + payloadSeparator + base64.RawURLEncoding.EncodeToString(sealed), nil
}

// DecryptPayload 解密载荷
// 任何篡改、截断、密钥不符或结构异常都只返回 ErrPayloadInvalid
func (g *Generator) DecryptPayload(raw string) (*Payload, error) {
	if g == nil {
		return nil, ErrConfigInvalid
	}
	keyID, encoded, ok := strings.Cut(strings.TrimSpace(raw), payloadSeparator)
	if !ok || keyID != g.keyID {
		return nil, ErrPayloadInvalid
	}
	sealed, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrPayloadInvalid
	}

	block, err := aes.NewCipher(g.key)
	if err != nil {
		return nil, ErrPayloadInvalid
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ErrPayloadInvalid
	}
	if len(sealed) <= gcm.NonceSize() {
		return nil, ErrPayloadInvalid
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, []byte(g.keyID))
	if err != nil {
		return nil, ErrPayloadInvalid
	}

	var payload Payload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return nil, ErrPayloadInvalid
	}
	if payload.VoucherID == 0 || strings.TrimSpace(payload.Pin) == "" {
		return nil, ErrPayloadInvalid
	}
	return &payload, nil
}

func randomNumericPin(length int) (string, error) {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}
