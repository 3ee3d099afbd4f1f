package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"golang.org/x/sync/errgroup"

	"github.com/skhokho/linkup-backend/internal/db"
	"github.com/skhokho/linkup-backend/internal/models"
)

// Интеграционные тесты гоняют репозитории против настоящего PostgreSQL:
// блокировки строк, test-and-set переходы и CHECK-ограничения мокам
// не видны. База берётся из TEST_DATABASE_URL, иначе поднимается
// контейнер postgres:16.
var testDB *sqlx.DB

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	dsn := os.Getenv("TEST_DATABASE_URL")
	var terminate func()
	if dsn == "" {
		if !dockerAvailable(ctx) {
			log.Println("интеграционные тесты пропущены: нет TEST_DATABASE_URL и docker недоступен")
			os.Exit(0)
		}

		pgC, err := tcpostgres.Run(ctx, "postgres:16",
			tcpostgres.WithDatabase("linkup_test"),
			tcpostgres.WithUsername("linkup"),
			tcpostgres.WithPassword("linkup"),
			tcpostgres.BasicWaitStrategies(),
		)
		if err != nil {
			log.Fatalf("не удалось поднять postgres контейнер: %v", err)
		}
		terminate = func() { _ = pgC.Terminate(context.Background()) }

		dsn, err = pgC.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			terminate()
			log.Fatalf("не удалось получить DSN контейнера: %v", err)
		}
	}

	conn, err := db.NewPostgres(ctx, dsn)
	if err != nil {
		if terminate != nil {
			terminate()
		}
		log.Fatalf("не удалось подключиться к тестовой базе: %v", err)
	}
	if err := db.RunMigrations(ctx, conn, "../../migrations"); err != nil {
		conn.Close()
		if terminate != nil {
			terminate()
		}
		log.Fatalf("не удалось применить миграции: %v", err)
	}

	testDB = conn
	code := m.Run()

	conn.Close()
	if terminate != nil {
		terminate()
	}
	os.Exit(code)
}

func dockerAvailable(ctx context.Context) bool {
	if _, err := exec.LookPath("docker"); err != nil {
		return false
	}
	cmd := exec.CommandContext(ctx, "docker", "info")
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	return cmd.Run() == nil
}

// seedUser создаёт пользователя с нулевым кошельком напрямую в базе.
func seedUser(t *testing.T) uuid.UUID {
	t.Helper()

	tag := uuid.NewString()[:8]
	var id uuid.UUID
	err := testDB.QueryRowx(
		`INSERT INTO users (email, username, password_hash) VALUES ($1, $2, 'x') RETURNING id`,
		fmt.Sprintf("it-%s@example.com", tag), "it-"+tag,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// fundUser пополняет кошелёк через Deposit, чтобы журнал сходился.
func fundUser(t *testing.T, wallets *WalletRepository, userID uuid.UUID, amount string) {
	t.Helper()

	_, err := wallets.Deposit(context.Background(), userID, decimal.RequireFromString(amount), "стартовый баланс")
	require.NoError(t, err)
}

func seedService(t *testing.T, providerID uuid.UUID, price string) *models.Service {
	t.Helper()

	svc := &models.Service{
		ProviderID: providerID,
		Name:       "Услуга " + uuid.NewString()[:8],
		Price:      decimal.RequireFromString(price),
		IsActive:   true,
	}
	err := testDB.QueryRowx(
		`INSERT INTO services (provider_id, name, price) VALUES ($1, $2, $3) RETURNING id, created_at`,
		svc.ProviderID, svc.Name, svc.Price,
	).Scan(&svc.ID, &svc.CreatedAt)
	require.NoError(t, err)
	return svc
}

func requireConsistent(t *testing.T, wallets *WalletRepository, userID uuid.UUID) *ReconcileReport {
	t.Helper()

	report, err := wallets.Reconcile(context.Background(), userID)
	require.NoError(t, err)
	assert.Truef(t, report.Consistent(),
		"баланс %s разошёлся с журналом %s", report.Balance, report.JournalSum)
	return report
}

// Восемь конкурентных наймов бьются за баланс, которого хватает ровно
// на один: работа должна достаться одному, остальные уйти с отказом,
// и ни одна копейка не потеряться.
func TestEscrowRepository_ConcurrentHire_ExactlyOneWins(t *testing.T) {
	ctx := context.Background()
	wallets := NewWalletRepository(testDB)
	escrow := NewEscrowRepository(testDB)

	customer := seedUser(t)
	provider := seedUser(t)
	fundUser(t, wallets, customer, "100.00")
	svc := seedService(t, provider, "100.00")

	var hired int64
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			_, err := escrow.Hire(gctx, customer, svc)
			switch {
			case err == nil:
				atomic.AddInt64(&hired, 1)
				return nil
			case errors.Is(err, ErrInsufficientFunds):
				return nil
			default:
				return err
			}
		})
	}
	require.NoError(t, g.Wait())
	assert.EqualValues(t, 1, hired)

	var jobCount int
	require.NoError(t, testDB.Get(&jobCount, `SELECT COUNT(*) FROM jobs WHERE customer_id = $1`, customer))
	assert.Equal(t, 1, jobCount)

	report := requireConsistent(t, wallets, customer)
	assert.True(t, report.Balance.IsZero(), "после единственного найма баланс заказчика пуст")
}

// Повторное подтверждение той же работы должно отлететь на test-and-set
// переходе, а исполнитель - получить деньги ровно один раз.
func TestEscrowRepository_Complete_SecondCallConflicts(t *testing.T) {
	ctx := context.Background()
	wallets := NewWalletRepository(testDB)
	escrow := NewEscrowRepository(testDB)

	customer := seedUser(t)
	provider := seedUser(t)
	fundUser(t, wallets, customer, "150.00")
	svc := seedService(t, provider, "150.00")

	job, err := escrow.Hire(ctx, customer, svc)
	require.NoError(t, err)

	paid, err := escrow.Complete(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPaid, paid.Status)
	assert.True(t, paid.IsPaid)

	_, err = escrow.Complete(ctx, job.ID)
	assert.ErrorIs(t, err, ErrJobStateConflict)

	report := requireConsistent(t, wallets, provider)
	assert.True(t, report.Balance.Equal(svc.Price), "выплата прошла ровно один раз")

	reviews := NewReviewRepository(testDB)
	review := &models.Review{
		JobID:      job.ID,
		ReviewerID: customer,
		RevieweeID: provider,
		Rating:     5,
		RoleRated:  models.RoleRatedProvider,
	}
	require.NoError(t, reviews.Create(ctx, review, models.ReputationDelta(5)))
	assert.ErrorIs(t, reviews.Create(ctx, &models.Review{
		JobID:      job.ID,
		ReviewerID: customer,
		RevieweeID: provider,
		Rating:     4,
		RoleRated:  models.RoleRatedProvider,
	}, models.ReputationDelta(4)), ErrReviewExists)

	info, err := wallets.GetWallet(ctx, provider)
	require.NoError(t, err)
	assert.Equal(t, models.ReputationDelta(5), info.Reputation)
}

// Встречные переводы двух пользователей не должны ни взаимоблокироваться,
// ни менять суммарный объём средств в системе.
func TestWalletRepository_Transfer_ConservesTotal(t *testing.T) {
	ctx := context.Background()
	wallets := NewWalletRepository(testDB)

	alice := seedUser(t)
	bob := seedUser(t)
	fundUser(t, wallets, alice, "200.00")
	fundUser(t, wallets, bob, "50.00")

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < 6; i++ {
		g.Go(func() error {
			_, err := wallets.Transfer(gctx, alice, bob, decimal.RequireFromString("10.00"), "встречный перевод")
			if errors.Is(err, ErrInsufficientFunds) {
				return nil
			}
			return err
		})
		g.Go(func() error {
			_, err := wallets.Transfer(gctx, bob, alice, decimal.RequireFromString("5.00"), "встречный перевод")
			if errors.Is(err, ErrInsufficientFunds) {
				return nil
			}
			return err
		})
	}
	require.NoError(t, g.Wait())

	aliceReport := requireConsistent(t, wallets, alice)
	bobReport := requireConsistent(t, wallets, bob)
	total := aliceReport.Balance.Add(bobReport.Balance)
	assert.True(t, total.Equal(decimal.RequireFromString("250.00")),
		"переводы не создают и не сжигают деньги, итог %s", total)

	// Каждый перевод оставляет ровно пару записей с общим transfer_id.
	var brokenPairs int
	require.NoError(t, testDB.Get(&brokenPairs, `
		SELECT COUNT(*) FROM (
			SELECT transfer_id FROM transactions
			WHERE user_id IN ($1, $2) AND transfer_id IS NOT NULL
			GROUP BY transfer_id HAVING COUNT(*) <> 2
		) broken
	`, alice, bob))
	assert.Zero(t, brokenPairs)
}

// Полный спорный сценарий: найм, спор заказчика, решение refund.
// Спор закрывается как resolved, работа отменяется, деньги возвращаются,
// и сверка сходится у обеих сторон.
func TestDisputeRepository_Resolve_RefundFlow(t *testing.T) {
	ctx := context.Background()
	wallets := NewWalletRepository(testDB)
	escrow := NewEscrowRepository(testDB)
	disputes := NewDisputeRepository(testDB)

	customer := seedUser(t)
	provider := seedUser(t)
	arbiter := seedUser(t)
	fundUser(t, wallets, customer, "300.00")
	svc := seedService(t, provider, "120.00")

	job, err := escrow.Hire(ctx, customer, svc)
	require.NoError(t, err)

	d := &models.Dispute{JobID: job.ID, InitiatorID: customer, Reason: "работа не сдана в срок"}
	require.NoError(t, disputes.Create(ctx, d))

	// Пока спор открыт, подтверждение заблокировано.
	_, err = escrow.Complete(ctx, job.ID)
	assert.ErrorIs(t, err, ErrOpenDisputeExists)

	resolved, cancelled, err := disputes.Resolve(ctx, d.ID, arbiter, models.DisputeOutcomeRefund, "возврат заказчику")
	require.NoError(t, err)
	assert.Equal(t, models.DisputeStatusResolved, resolved.Status)
	assert.Equal(t, models.JobStatusCancelled, cancelled.Status)

	_, _, err = disputes.Resolve(ctx, d.ID, arbiter, models.DisputeOutcomeRefund, "повторное решение")
	assert.ErrorIs(t, err, ErrDisputeAlreadyResolved)

	customerReport := requireConsistent(t, wallets, customer)
	assert.True(t, customerReport.Balance.Equal(decimal.RequireFromString("300.00")),
		"после возврата заказчик при своих")
	providerReport := requireConsistent(t, wallets, provider)
	assert.True(t, providerReport.Balance.IsZero())
}

// Решение против инициатора закрывает спор со статусом rejected.
func TestDisputeRepository_Resolve_AgainstInitiatorRejects(t *testing.T) {
	ctx := context.Background()
	wallets := NewWalletRepository(testDB)
	escrow := NewEscrowRepository(testDB)
	disputes := NewDisputeRepository(testDB)

	customer := seedUser(t)
	provider := seedUser(t)
	arbiter := seedUser(t)
	fundUser(t, wallets, customer, "80.00")
	svc := seedService(t, provider, "80.00")

	job, err := escrow.Hire(ctx, customer, svc)
	require.NoError(t, err)

	d := &models.Dispute{JobID: job.ID, InitiatorID: customer, Reason: "результат не устроил"}
	require.NoError(t, disputes.Create(ctx, d))

	rejected, paid, err := disputes.Resolve(ctx, d.ID, arbiter, models.DisputeOutcomeRelease, "работа выполнена по договорённости")
	require.NoError(t, err)
	assert.Equal(t, models.DisputeStatusRejected, rejected.Status)
	assert.Equal(t, models.JobStatusPaid, paid.Status)

	providerReport := requireConsistent(t, wallets, provider)
	assert.True(t, providerReport.Balance.Equal(svc.Price))
	requireConsistent(t, wallets, customer)
}

// Сверка держится после смешанной последовательности операций.
func TestWalletRepository_Reconcile_AfterMixedFlow(t *testing.T) {
	ctx := context.Background()
	wallets := NewWalletRepository(testDB)
	escrow := NewEscrowRepository(testDB)

	customer := seedUser(t)
	provider := seedUser(t)
	fundUser(t, wallets, customer, "500.00")
	svc := seedService(t, provider, "200.00")

	job, err := escrow.Hire(ctx, customer, svc)
	require.NoError(t, err)
	_, err = escrow.Complete(ctx, job.ID)
	require.NoError(t, err)

	_, err = wallets.Withdraw(ctx, provider, decimal.RequireFromString("75.00"), "вывод средств")
	require.NoError(t, err)
	_, err = wallets.Transfer(ctx, customer, provider, decimal.RequireFromString("30.00"), "чаевые")
	require.NoError(t, err)

	// Списание больше остатка должно отлететь до каких-либо записей.
	_, err = wallets.Withdraw(ctx, customer, decimal.RequireFromString("1000.00"), "слишком много")
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	customerReport := requireConsistent(t, wallets, customer)
	assert.True(t, customerReport.Balance.Equal(decimal.RequireFromString("270.00")))
	providerReport := requireConsistent(t, wallets, provider)
	assert.True(t, providerReport.Balance.Equal(decimal.RequireFromString("155.00")))
}
