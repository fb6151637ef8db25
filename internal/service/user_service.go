package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/TORY-SKY/swappNaija/internal/auth"
	"github.com/TORY-SKY/swappNaija/internal/config"
	"github.com/TORY-SKY/swappNaija/internal/datamodels/user"
)

// RecipientGateway 银行卡核验 + 收款人注册（Paystack 实现）
type RecipientGateway interface {
	ResolveAccount(ctx context.Context, accountNumber, bankCode string) (string, error)
	CreateRecipient(ctx context.Context, name, accountNumber, bankCode string) (string, error)
}

// UserService 用户注册、登录与银行账户绑定
type UserService struct {
	repo    user.Repository
	gateway RecipientGateway
	jwt     *config.JWTConfig
}

// NewUserService 创建用户服务
func NewUserService(repo user.Repository, gateway RecipientGateway, jwt *config.JWTConfig) *UserService {
	return &UserService{repo: repo, gateway: gateway, jwt: jwt}
}

func hashPassword(raw, salt string) string {
	h := sha256.Sum256([]byte(raw + salt))
	return hex.EncodeToString(h[:])
}

func newSalt() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Register 注册用户
func (s *UserService) Register(ctx context.Context, username, password, email, phone, userType string) (*user.User, error) {
	if username == "" || password == "" {
		return nil, errors.New("username and password are required")
	}
	switch userType {
	case user.TypeBuyer, user.TypeSeller, user.TypeBoth:
	case "":
		userType = user.TypeBoth
	default:
		return nil, errors.New("invalid user type")
	}

	u := &user.User{
		Username: username,
		Salt:     newSalt(),
		Email:    email,
		Phone:    phone,
		UserType: userType,
	}
	u.Password = hashPassword(password, u.Salt)
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login 登录并返回 JWT
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if hashPassword(password, u.Salt) != u.Password {
		return "", errors.New("invalid password")
	}
	return auth.GenerateToken(s.jwt, u.ID, u.Username, u.UserType)
}

// GetProfile 查询用户资料
func (s *UserService) GetProfile(ctx context.Context, userID int64) (*user.User, error) {
	return s.repo.GetByID(ctx, userID)
}

// UpdateBankDetails 绑定银行账户
// 先通过网关核验账号拿到开户名，再注册转账收款人，recipient code 随银行信息一并落库。
// 之后该用户才具备申请提现的资格。
func (s *UserService) UpdateBankDetails(ctx context.Context, userID int64, accountNumber, bankCode, bankName string) (*user.User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	accountName, err := s.gateway.ResolveAccount(ctx, accountNumber, bankCode)
	if err != nil {
		GetMonitor().RecordGatewayError()
		return nil, err
	}

	recipientCode, err := s.gateway.CreateRecipient(ctx, accountName, accountNumber, bankCode)
	if err != nil {
		GetMonitor().RecordGatewayError()
		return nil, err
	}

	u.BankAccountName = accountName
	u.BankAccountNumber = accountNumber
	u.BankCode = bankCode
	u.BankName = bankName
	u.RecipientCode = recipientCode
	u.Verified = true
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
