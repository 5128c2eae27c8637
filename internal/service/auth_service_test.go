package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-gate-api/internal/dto"
	"github.com/noah-isme/campus-gate-api/internal/models"
	"github.com/noah-isme/campus-gate-api/internal/repository"
)

const testSessionSecret = "session-secret"

type capturingMailer struct {
	mu    sync.Mutex
	codes map[string]string
	err   error
}

func (m *capturingMailer) SendOTP(ctx context.Context, to, name, code string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.codes == nil {
		m.codes = map[string]string{}
	}
	m.codes[to] = code
	return nil
}

func (m *capturingMailer) code(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email]
}

type authFixture struct {
	db     *gorm.DB
	redis  *miniredis.Miniredis
	clock  *testClock
	mailer *capturingMailer
	svc    AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	db := setupServiceDB(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clock := newTestClock()
	mailer := &capturingMailer{}
	svc := NewAuthService(
		repository.NewIdentityRepository(db),
		repository.NewOTPRepository(db),
		client,
		mailer,
		testValidator(),
		testLogger(),
		AuthOptions{
			SessionSecret:  testSessionSecret,
			SessionTTL:     time.Hour,
			OTPTTL:         10 * time.Minute,
			OTPLength:      6,
			OTPMaxAttempts: 3,
			OTPCooldown:    time.Minute,
			HashCost:       bcrypt.MinCost,
			Now:            clock.Now,
		},
	)

	return &authFixture{db: db, redis: mr, clock: clock, mailer: mailer, svc: svc}
}

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func TestSendAndVerifyOTPIssuesSession(t *testing.T) {
	f := newAuthFixture(t)
	student := createStudent(t, f.db, "21CS100", models.CampusStatusIn)

	sent, err := f.svc.SendOTP(context.Background(), dto.OTPSendRequest{Email: "21CS100@Campus.test"})
	require.NoError(t, err)
	require.Equal(t, "21cs100@campus.test", sent.Email)
	require.Equal(t, "student", sent.Role)
	require.Equal(t, f.clock.Now().Add(10*time.Minute), sent.ExpiresAt)

	code := f.mailer.code(sent.Email)
	require.Len(t, code, 6)

	var stored models.OTPCode
	require.NoError(t, f.db.Where("email = ?", sent.Email).First(&stored).Error)
	require.NotEqual(t, code, stored.CodeHash)

	auth, err := f.svc.VerifyOTP(context.Background(), dto.OTPVerifyRequest{Email: sent.Email, OTP: code})
	require.NoError(t, err)
	require.Equal(t, "student", auth.Role)
	require.Equal(t, student.ID, auth.User.ID)
	require.Equal(t, student.RollNumber, auth.User.RollNumber)

	claims := jwt.MapClaims{}
	_, err = jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(f.clock.Now),
	).ParseWithClaims(auth.Token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSessionSecret), nil
	})
	require.NoError(t, err)
	require.Equal(t, "student", claims["role"])
	require.Equal(t, sent.Email, claims["email"])

	_, err = f.svc.VerifyOTP(context.Background(), dto.OTPVerifyRequest{Email: sent.Email, OTP: code})
	require.ErrorIs(t, err, ErrOTPInvalid)
}

func TestSendOTPResolvesStaffAccounts(t *testing.T) {
	f := newAuthFixture(t)
	require.NoError(t, f.db.Create(&models.NonTeachingStaff{
		Name: "Gate Guard", Email: "guard@campus.test", StaffCode: "NT-1", IsActive: true,
	}).Error)

	sent, err := f.svc.SendOTP(context.Background(), dto.OTPSendRequest{Email: "guard@campus.test"})
	require.NoError(t, err)
	require.Equal(t, "staff", sent.Role)
}

func TestSendOTPUnknownEmail(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.SendOTP(context.Background(), dto.OTPSendRequest{Email: "ghost@campus.test"})
	require.ErrorIs(t, err, ErrUnknownAccount)
}

func TestSendOTPCooldown(t *testing.T) {
	f := newAuthFixture(t)
	createStudent(t, f.db, "21CS101", models.CampusStatusIn)
	req := dto.OTPSendRequest{Email: "21cs101@campus.test"}

	_, err := f.svc.SendOTP(context.Background(), req)
	require.NoError(t, err)

	_, err = f.svc.SendOTP(context.Background(), req)
	require.ErrorIs(t, err, ErrOTPCooldown)

	f.redis.FastForward(time.Minute + time.Second)
	_, err = f.svc.SendOTP(context.Background(), req)
	require.NoError(t, err)

	var count int64
	require.NoError(t, f.db.Model(&models.OTPCode{}).Where("email = ?", req.Email).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestSendOTPDeliveryFailureReleasesCooldown(t *testing.T) {
	f := newAuthFixture(t)
	createStudent(t, f.db, "21CS102", models.CampusStatusIn)
	f.mailer.err = errors.New("smtp down")

	_, err := f.svc.SendOTP(context.Background(), dto.OTPSendRequest{Email: "21cs102@campus.test"})
	require.ErrorIs(t, err, ErrOTPDelivery)
	require.False(t, f.redis.Exists(otpCooldownKey("21cs102@campus.test")))

	var count int64
	require.NoError(t, f.db.Model(&models.OTPCode{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestVerifyOTPAttemptsExhausted(t *testing.T) {
	f := newAuthFixture(t)
	createStudent(t, f.db, "21CS103", models.CampusStatusIn)
	email := "21cs103@campus.test"

	_, err := f.svc.SendOTP(context.Background(), dto.OTPSendRequest{Email: email})
	require.NoError(t, err)
	code := f.mailer.code(email)

	for _, remaining := range []int{2, 1, 0} {
		_, err := f.svc.VerifyOTP(context.Background(), dto.OTPVerifyRequest{Email: email, OTP: wrongCode(code)})
		var mismatch *OTPMismatchError
		require.ErrorAs(t, err, &mismatch)
		require.Equal(t, remaining, mismatch.Remaining)
		require.ErrorIs(t, err, ErrOTPInvalid)
	}

	_, err = f.svc.VerifyOTP(context.Background(), dto.OTPVerifyRequest{Email: email, OTP: code})
	require.ErrorIs(t, err, ErrOTPInvalid)
}

func TestVerifyOTPConcurrentGuessesShareAttemptBudget(t *testing.T) {
	f := newAuthFixture(t)
	createStudent(t, f.db, "21CS106", models.CampusStatusIn)
	email := "21cs106@campus.test"

	_, err := f.svc.SendOTP(context.Background(), dto.OTPSendRequest{Email: email})
	require.NoError(t, err)
	guess := wrongCode(f.mailer.code(email))

	const guesses = 10
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		compared   int
		unexpected []error
	)
	for i := 0; i < guesses; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.VerifyOTP(context.Background(), dto.OTPVerifyRequest{Email: email, OTP: guess})
			var mismatch *OTPMismatchError
			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.As(err, &mismatch):
				compared++
			case errors.Is(err, ErrOTPInvalid):
			default:
				unexpected = append(unexpected, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, unexpected)
	require.Equal(t, 3, compared, "only the attempt budget may reach the code comparison")
}

func TestVerifyOTPExpired(t *testing.T) {
	f := newAuthFixture(t)
	createStudent(t, f.db, "21CS104", models.CampusStatusIn)
	email := "21cs104@campus.test"

	_, err := f.svc.SendOTP(context.Background(), dto.OTPSendRequest{Email: email})
	require.NoError(t, err)
	code := f.mailer.code(email)

	f.clock.Advance(10 * time.Minute)
	_, err = f.svc.VerifyOTP(context.Background(), dto.OTPVerifyRequest{Email: email, OTP: code})
	require.ErrorIs(t, err, ErrOTPInvalid)

	var count int64
	require.NoError(t, f.db.Model(&models.OTPCode{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestPurgeStaleCodesAndMe(t *testing.T) {
	f := newAuthFixture(t)
	student := createStudent(t, f.db, "21CS105", models.CampusStatusIn)

	_, err := f.svc.SendOTP(context.Background(), dto.OTPSendRequest{Email: student.Email})
	require.NoError(t, err)

	purged, err := f.svc.PurgeStaleCodes(context.Background())
	require.NoError(t, err)
	require.Zero(t, purged)

	f.clock.Advance(11 * time.Minute)
	purged, err = f.svc.PurgeStaleCodes(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), purged)

	profile, err := f.svc.Me(context.Background(), models.RoleStudent, student.ID)
	require.NoError(t, err)
	require.Equal(t, student.Email, profile.Email)

	_, err = f.svc.Me(context.Background(), models.RoleAdmin, student.ID)
	require.ErrorIs(t, err, ErrUnknownAccount)
}

func TestGenerateNumericCode(t *testing.T) {
	code, err := generateNumericCode(8)
	require.NoError(t, err)
	require.Len(t, code, 8)
	for _, r := range code {
		require.True(t, r >= '0' && r <= '9')
	}
}

func TestMaskEmailAddress(t *testing.T) {
	require.Equal(t, "2***0@campus.test", maskEmailAddress(" 21CS100@Campus.test "))
	require.Equal(t, "a***@campus.test", maskEmailAddress("ab@campus.test"))
	require.Equal(t, "***", maskEmailAddress("not-an-email"))
	require.Empty(t, maskEmailAddress(""))
}
