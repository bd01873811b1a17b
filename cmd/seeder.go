package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/frahmantamala/club-management/internal/auth"
	cashboxDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/cashbox"
	contributionDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/contribution"
	memberDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/member"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	seedClear         bool
	seedPassword      string
	seedMonthlyAmount int64
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with the bureau accounts, a default cash box and the monthly contribution for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlDB.Close()

		db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to open gorm: %v", err)
		}

		if seedClear {
			if err := clearSeed(db); err != nil {
				log.Fatalf("failed to clear data: %v", err)
			}
			fmt.Println("Cleared existing data")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), cfg.Security.BCryptCost)
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}

		if err := db.Transaction(func(tx *gorm.DB) error {
			if err := seedMembers(tx, string(hash)); err != nil {
				return err
			}
			if err := seedCashBox(tx); err != nil {
				return err
			}
			return seedMonthlyContribution(tx, seedMonthlyAmount)
		}); err != nil {
			log.Fatalf("seed failed: %v", err)
		}

		fmt.Println("Seeding complete!")
	},
}

func init() {
	seedCmd.Flags().BoolVar(&seedClear, "clear", false, "delete members, cash boxes, contributions and payments first")
	seedCmd.Flags().StringVar(&seedPassword, "password", "password", "password given to every seeded account")
	seedCmd.Flags().Int64Var(&seedMonthlyAmount, "monthly-amount", 5000, "monthly contribution amount in FCFA")
}

type seedAccount struct {
	Phone     string
	FirstName string
	LastName  string
	Role      auth.Role
}

var seedAccounts = []seedAccount{
	{"+225070000001", "Admin", "Club", auth.RoleAdmin},
	{"+225070000002", "Paul", "Mbarga", auth.RolePresident},
	{"+225070000003", "Claire", "Ngo", auth.RoleSecretaryGeneral},
	{"+225070000004", "Serge", "Eto", auth.RoleTreasurer},
	{"+225070000005", "Alain", "Fouda", auth.RoleCommissioner},
	{"+225070000006", "Eric", "Nkoulou", auth.RolePlayer},
}

func seedMembers(tx *gorm.DB, hash string) error {
	for _, a := range seedAccounts {
		var existing memberDatamodel.Member
		err := tx.Where("phone = ?", a.Phone).First(&existing).Error
		if err == nil {
			fmt.Println("member already exists:", a.Phone)
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("lookup %s: %w", a.Phone, err)
		}

		m := memberDatamodel.Member{
			ID:               uuid.NewString(),
			Phone:            a.Phone,
			PasswordHash:     hash,
			FirstName:        a.FirstName,
			LastName:         a.LastName,
			Role:             string(a.Role),
			ProfileCompleted: true,
		}
		if err := tx.Create(&m).Error; err != nil {
			return fmt.Errorf("insert %s: %w", a.Phone, err)
		}
		fmt.Printf("Seeded %s: %s\n", a.Role, a.Phone)
	}
	return nil
}

func seedCashBox(tx *gorm.DB) error {
	var count int64
	if err := tx.Model(&cashboxDatamodel.CashBox{}).Where("is_default").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		fmt.Println("default cash box already exists")
		return nil
	}
	box := cashboxDatamodel.CashBox{
		ID:        uuid.NewString(),
		Name:      "Caisse principale",
		IsDefault: true,
	}
	if err := tx.Create(&box).Error; err != nil {
		return fmt.Errorf("insert cash box: %w", err)
	}
	fmt.Println("Seeded default cash box:", box.Name)
	return nil
}

func seedMonthlyContribution(tx *gorm.DB, amount int64) error {
	var count int64
	if err := tx.Model(&contributionDatamodel.Contribution{}).Where("type = ?", "MONTHLY").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		fmt.Println("monthly contribution already exists")
		return nil
	}
	freq := "MONTHLY"
	start := time.Date(time.Now().Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	c := contributionDatamodel.Contribution{
		ID:        uuid.NewString(),
		Name:      "Cotisation mensuelle",
		Type:      "MONTHLY",
		Amount:    &amount,
		Frequency: &freq,
		StartDate: &start,
	}
	if err := tx.Create(&c).Error; err != nil {
		return fmt.Errorf("insert contribution: %w", err)
	}
	fmt.Printf("Seeded monthly contribution: %d FCFA\n", amount)
	return nil
}

func clearSeed(db *gorm.DB) error {
	for _, table := range []string{"payments", "contributions", "cash_box_transfers", "expenses", "cash_boxes", "member_audit_logs", "members"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}
