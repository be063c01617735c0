package middleware

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/worklane/worklane/logger"
	"github.com/worklane/worklane/response"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

/* ========================================================================
 * Auth Header Spec (v1)
 * ========================================================================
 * Scope:
 *   - The gateway authenticates the end user, then injects the verified
 *     identity and the requested tenant into signed headers.
 *   - This service verifies the headers; it never sees credentials.
 *
 * Headers:
 *   - X-WL-Auth-V: version ("1")
 *   - X-WL-Auth-Iss: issuer (gateway/service name)
 *   - X-WL-Auth-Ts: unix timestamp (seconds)
 *   - X-WL-Auth-Nonce: random nonce
 *   - X-WL-Auth-User: base64url(JSON UserClaims)
 *   - X-WL-Auth-Sign: hex(HMAC-SHA256(secret, payload))
 *
 * Signature payload:
 *   v|iss|ts|nonce|user
 * ======================================================================== */

const (
	AuthHeaderVersionV1 = "1"

	HeaderAuthVersion   = "X-WL-Auth-V"
	HeaderAuthIssuer    = "X-WL-Auth-Iss"
	HeaderAuthTimestamp = "X-WL-Auth-Ts"
	HeaderAuthNonce     = "X-WL-Auth-Nonce"
	HeaderAuthUser      = "X-WL-Auth-User"
	HeaderAuthSignature = "X-WL-Auth-Sign"
)

const (
	defaultAuthMaxAge      = 5 * time.Minute
	defaultAuthClockSkew   = 30 * time.Second
	defaultAuthNonceSize   = 16
	authContextLocalKey    = "wl_auth_ctx"
	authSignatureDelimiter = "|"
)

var (
	ErrAuthHeaderMissing          = errors.New("missing auth headers")
	ErrAuthHeaderInvalidVersion   = errors.New("invalid auth version")
	ErrAuthHeaderInvalidIssuer    = errors.New("invalid auth issuer")
	ErrAuthHeaderInvalidTS        = errors.New("invalid auth timestamp")
	ErrAuthHeaderMissingNonce     = errors.New("missing auth nonce")
	ErrAuthHeaderMissingUser      = errors.New("missing auth user")
	ErrAuthHeaderInvalidUser      = errors.New("invalid auth user header")
	ErrAuthHeaderInvalidSign      = errors.New("invalid auth signature")
	ErrAuthHeaderExpired          = errors.New("auth header expired")
	ErrAuthHeaderNotYetValid      = errors.New("auth header timestamp in future")
	ErrAuthHeaderMissingSecret    = errors.New("auth header secret is required")
	ErrAuthHeaderIssuerNotAllowed = errors.New("auth issuer not allowed")
)

// UserClaims 网关注入的已认证身份与目标租户
type UserClaims struct {
	UserID      int64  `json:"user_id,string"`
	AccountID   int64  `json:"account_id,string,omitempty"`
	WorkspaceID int64  `json:"workspace_id,string,omitempty"`
	Email       string `json:"email,omitempty"`
}

// AuthContext 验证通过后的头部数据
type AuthContext struct {
	Version  string
	Issuer   string
	IssuedAt time.Time
	Nonce    string
	Claims   *UserClaims
}

// AuthHeaderValues 头部的结构化表示
type AuthHeaderValues struct {
	Version   string
	Issuer    string
	Timestamp int64
	Nonce     string
	User      string
	Signature string
}

// ToMap 转换为 header map
func (v AuthHeaderValues) ToMap() map[string]string {
	headers := map[string]string{
		HeaderAuthVersion:   v.Version,
		HeaderAuthIssuer:    v.Issuer,
		HeaderAuthTimestamp: strconv.FormatInt(v.Timestamp, 10),
		HeaderAuthNonce:     v.Nonce,
		HeaderAuthSignature: v.Signature,
	}
	if v.User != "" {
		headers[HeaderAuthUser] = v.User
	}
	return headers
}

// WriteAuthHeaders 写入 http.Header（服务间调用时使用）
func WriteAuthHeaders(h http.Header, v AuthHeaderValues) {
	if h == nil {
		return
	}
	for key, value := range v.ToMap() {
		h.Set(key, value)
	}
}

// AuthContextFromFiber 从 fiber.Ctx 取出认证上下文
func AuthContextFromFiber(c fiber.Ctx) (*AuthContext, bool) {
	v := c.Locals(authContextLocalKey)
	if v == nil {
		return nil, false
	}
	ctx, ok := v.(*AuthContext)
	return ctx, ok && ctx != nil
}

// ClaimsFromFiber 从 fiber.Ctx 取出用户声明
func ClaimsFromFiber(c fiber.Ctx) (*UserClaims, bool) {
	ctx, ok := AuthContextFromFiber(c)
	if !ok || ctx.Claims == nil {
		return nil, false
	}
	return ctx.Claims, true
}

// AuthHeaderSignerConfig 签名端配置
type AuthHeaderSignerConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Secret  string `yaml:"secret" mapstructure:"secret"`
	Issuer  string `yaml:"issuer" mapstructure:"issuer"`
	Version string `yaml:"version" mapstructure:"version"`

	NowFunc func() time.Time `yaml:"-" mapstructure:"-"`
}

// AuthHeaderSigner 头部签名器（网关 / 服务间调用）
type AuthHeaderSigner struct {
	config  AuthHeaderSignerConfig
	nowFunc func() time.Time
}

// NewAuthHeaderSigner 创建签名器
func NewAuthHeaderSigner(cfg *AuthHeaderSignerConfig) *AuthHeaderSigner {
	if cfg == nil {
		cfg = &AuthHeaderSignerConfig{}
	}
	config := *cfg
	if config.Version == "" {
		config.Version = AuthHeaderVersionV1
	}
	signer := &AuthHeaderSigner{config: config, nowFunc: time.Now}
	if config.NowFunc != nil {
		signer.nowFunc = config.NowFunc
	}
	return signer
}

// BuildHeaders 为给定声明构建签名头部
func (s *AuthHeaderSigner) BuildHeaders(claims *UserClaims) (AuthHeaderValues, error) {
	if s.config.Secret == "" {
		return AuthHeaderValues{}, ErrAuthHeaderMissingSecret
	}
	if s.config.Issuer == "" {
		return AuthHeaderValues{}, ErrAuthHeaderInvalidIssuer
	}
	userValue, err := EncodeUserClaims(claims)
	if err != nil {
		return AuthHeaderValues{}, err
	}
	nonce, err := generateNonce()
	if err != nil {
		return AuthHeaderValues{}, err
	}
	issuedAt := s.nowFunc().Unix()
	signature := signAuthHeader(s.config.Secret, s.config.Version, s.config.Issuer, issuedAt, nonce, userValue)
	return AuthHeaderValues{
		Version:   s.config.Version,
		Issuer:    s.config.Issuer,
		Timestamp: issuedAt,
		Nonce:     nonce,
		User:      userValue,
		Signature: signature,
	}, nil
}

// AuthHeaderVerifierConfig 验证端配置
type AuthHeaderVerifierConfig struct {
	Enabled          bool              `yaml:"enabled" mapstructure:"enabled"`
	Secret           string            `yaml:"secret" mapstructure:"secret"`
	Secrets          map[string]string `yaml:"secrets" mapstructure:"secrets"`
	AllowedIssuers   []string          `yaml:"allowed_issuers" mapstructure:"allowed_issuers"`
	Version          string            `yaml:"version" mapstructure:"version"`
	MaxAge           time.Duration     `yaml:"max_age" mapstructure:"max_age"`
	AllowedClockSkew time.Duration     `yaml:"allowed_clock_skew" mapstructure:"allowed_clock_skew"`

	NowFunc func() time.Time `yaml:"-" mapstructure:"-"`
}

// AuthHeaderVerifier 头部验证器
type AuthHeaderVerifier struct {
	config  AuthHeaderVerifierConfig
	log     *logger.Logger
	nowFunc func() time.Time
}

// NewAuthHeaderVerifier 创建验证器
func NewAuthHeaderVerifier(cfg *AuthHeaderVerifierConfig, log *logger.Logger) *AuthHeaderVerifier {
	if cfg == nil {
		cfg = &AuthHeaderVerifierConfig{}
	}
	config := *cfg
	if config.Version == "" {
		config.Version = AuthHeaderVersionV1
	}
	if config.MaxAge == 0 {
		config.MaxAge = defaultAuthMaxAge
	}
	if config.AllowedClockSkew == 0 {
		config.AllowedClockSkew = defaultAuthClockSkew
	}
	if log == nil {
		log = logger.NewNop()
	}
	verifier := &AuthHeaderVerifier{config: config, log: log, nowFunc: time.Now}
	if config.NowFunc != nil {
		verifier.nowFunc = config.NowFunc
	}
	return verifier
}

// Authenticate 返回验证头部的 Fiber 中间件
func (v *AuthHeaderVerifier) Authenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		if !v.config.Enabled {
			return c.Next()
		}
		if v.config.Secret == "" && len(v.config.Secrets) == 0 {
			v.log.Error("Auth header verifier misconfigured: missing secret")
			return response.InternalError(c, "auth header misconfigured")
		}
		values, err := ParseAuthHeaderValuesFromFiber(c)
		if err != nil {
			v.log.Warn("Auth header parse failed",
				zap.Error(err),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			return response.Unauthorized(c, err.Error())
		}
		ctx, err := v.Verify(values)
		if err != nil {
			v.log.Warn("Auth header verify failed",
				zap.Error(err),
				zap.String("issuer", values.Issuer),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			return response.Unauthorized(c, err.Error())
		}
		c.Locals(authContextLocalKey, ctx)
		return c.Next()
	}
}

// Verify 验证头部并返回认证上下文
func (v *AuthHeaderVerifier) Verify(values AuthHeaderValues) (*AuthContext, error) {
	if values.Version == "" || values.Issuer == "" || values.Timestamp == 0 || values.Signature == "" {
		return nil, ErrAuthHeaderMissing
	}
	if v.config.Version != "" && values.Version != v.config.Version {
		return nil, ErrAuthHeaderInvalidVersion
	}
	if !v.isIssuerAllowed(values.Issuer) {
		return nil, ErrAuthHeaderIssuerNotAllowed
	}
	if values.Nonce == "" {
		return nil, ErrAuthHeaderMissingNonce
	}
	secret := v.secretForIssuer(values.Issuer)
	if secret == "" {
		return nil, ErrAuthHeaderMissingSecret
	}
	expected := signAuthHeader(secret, values.Version, values.Issuer, values.Timestamp, values.Nonce, values.User)
	if !secureCompare(expected, values.Signature) {
		return nil, ErrAuthHeaderInvalidSign
	}
	issuedAt := time.Unix(values.Timestamp, 0)
	now := v.nowFunc()
	if v.config.MaxAge > 0 && now.Sub(issuedAt) > v.config.MaxAge {
		return nil, ErrAuthHeaderExpired
	}
	if issuedAt.After(now.Add(v.config.AllowedClockSkew)) {
		return nil, ErrAuthHeaderNotYetValid
	}
	claims, err := DecodeUserClaims(values.User)
	if err != nil {
		return nil, ErrAuthHeaderInvalidUser
	}
	if claims == nil || claims.UserID == 0 {
		return nil, ErrAuthHeaderMissingUser
	}
	return &AuthContext{
		Version:  values.Version,
		Issuer:   values.Issuer,
		IssuedAt: issuedAt,
		Nonce:    values.Nonce,
		Claims:   claims,
	}, nil
}

// ParseAuthHeaderValuesFromFiber 从 fiber.Ctx 读取头部
func ParseAuthHeaderValuesFromFiber(c fiber.Ctx) (AuthHeaderValues, error) {
	return parseAuthHeaderValues(func(key string) string { return c.Get(key) })
}

// ParseAuthHeaderValuesFromHeader 从 http.Header 读取头部
func ParseAuthHeaderValuesFromHeader(h http.Header) (AuthHeaderValues, error) {
	if h == nil {
		return AuthHeaderValues{}, ErrAuthHeaderMissing
	}
	return parseAuthHeaderValues(h.Get)
}

func parseAuthHeaderValues(get func(string) string) (AuthHeaderValues, error) {
	version := strings.TrimSpace(get(HeaderAuthVersion))
	issuer := strings.TrimSpace(get(HeaderAuthIssuer))
	stamp := strings.TrimSpace(get(HeaderAuthTimestamp))
	signature := strings.TrimSpace(get(HeaderAuthSignature))
	if version == "" || issuer == "" || stamp == "" || signature == "" {
		return AuthHeaderValues{}, ErrAuthHeaderMissing
	}
	timestamp, err := strconv.ParseInt(stamp, 10, 64)
	if err != nil || timestamp <= 0 {
		return AuthHeaderValues{}, ErrAuthHeaderInvalidTS
	}
	return AuthHeaderValues{
		Version:   version,
		Issuer:    issuer,
		Timestamp: timestamp,
		Nonce:     strings.TrimSpace(get(HeaderAuthNonce)),
		User:      strings.TrimSpace(get(HeaderAuthUser)),
		Signature: signature,
	}, nil
}

func (v *AuthHeaderVerifier) secretForIssuer(issuer string) string {
	if issuer == "" {
		return ""
	}
	if len(v.config.Secrets) > 0 {
		if secret, ok := v.config.Secrets[issuer]; ok {
			return secret
		}
		if v.config.Secret != "" {
			return v.config.Secret
		}
		return ""
	}
	return v.config.Secret
}

func (v *AuthHeaderVerifier) isIssuerAllowed(issuer string) bool {
	if issuer == "" {
		return false
	}
	if len(v.config.AllowedIssuers) == 0 {
		return true
	}
	for _, allowed := range v.config.AllowedIssuers {
		if issuer == allowed {
			return true
		}
	}
	return false
}

// EncodeUserClaims 编码为 base64url JSON
func EncodeUserClaims(claims *UserClaims) (string, error) {
	if claims == nil {
		return "", nil
	}
	data, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeUserClaims 从 base64url JSON 解码
func DecodeUserClaims(value string) (*UserClaims, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		data, err = base64.StdEncoding.DecodeString(value)
		if err != nil {
			return nil, err
		}
	}
	var claims UserClaims
	if err := json.Unmarshal(data, &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}

func signAuthHeader(secret, version, issuer string, timestamp int64, nonce, user string) string {
	parts := []string{
		version,
		issuer,
		strconv.FormatInt(timestamp, 10),
		nonce,
		user,
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(parts, authSignatureDelimiter)))
	return hex.EncodeToString(mac.Sum(nil))
}

func secureCompare(expected, provided string) bool {
	return subtle.ConstantTimeCompare([]byte(expected), []byte(provided)) == 1
}

func generateNonce() (string, error) {
	buf := make([]byte, defaultAuthNonceSize)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
