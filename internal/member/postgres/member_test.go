package postgres_test

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/frahmantamala/club-management/internal"
	"github.com/frahmantamala/club-management/internal/auth"
	memberDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/member"
	"github.com/frahmantamala/club-management/internal/core/directory"
	"github.com/frahmantamala/club-management/internal/core/events"
	"github.com/frahmantamala/club-management/internal/core/testdb"
	"github.com/frahmantamala/club-management/internal/member"
	memberPostgres "github.com/frahmantamala/club-management/internal/member/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func TestMemberRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Member Repository Suite")
}

type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *capturePublisher) Publish(_ context.Context, e events.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func strp(s string) *string { return &s }
func boolp(b bool) *bool    { return &b }

var _ = Describe("Member service on sqlite", func() {
	var (
		db        *gorm.DB
		service   *member.Service
		published *capturePublisher
		ctx       context.Context
		admin     = auth.Principal{MemberID: "admin", Role: auth.RoleAdmin}
		president = auth.Principal{MemberID: "pres", Role: auth.RolePresident}
		player    = auth.Principal{MemberID: "player", Role: auth.RolePlayer}
	)

	seed := func(id, phone string, role auth.Role) {
		Expect(db.Create(&memberDatamodel.Member{
			ID:        id,
			Phone:     phone,
			FirstName: id,
			LastName:  "Diop",
			Role:      string(role),
		}).Error).To(Succeed())
	}

	BeforeEach(func() {
		var err error
		db, err = testdb.Open()
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
		published = &capturePublisher{}
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		service = member.NewService(
			memberPostgres.NewMemberRepository(db),
			directory.NewGormResolver(db),
			auth.DefaultPolicy(),
			published,
			lg,
			member.Options{Grace: 24 * time.Hour, BCryptCost: bcrypt.MinCost},
		)
		seed("admin", "+221770000001", auth.RoleAdmin)
		seed("pres", "+221770000002", auth.RolePresident)
		seed("player", "+221770000003", auth.RolePlayer)
	})

	Describe("Create", func() {
		It("hashes the password and normalizes the phone", func() {
			m, err := service.Create(ctx, admin, member.CreateMemberDTO{
				Phone:     " +221 77 000 11 22 ",
				Password:  "secret123",
				FirstName: "Awa",
				LastName:  "Ndiaye",
				Role:      "player",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Role).To(Equal("PLAYER"))
			Expect(m.ProfileCompleted).To(BeFalse())

			var row memberDatamodel.Member
			Expect(db.First(&row, "id = ?", m.ID).Error).To(Succeed())
			Expect(bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte("secret123"))).To(Succeed())
		})

		It("rejects a phone number already in use", func() {
			_, err := service.Create(ctx, admin, member.CreateMemberDTO{
				Phone: "+221 77 000 00 03", Password: "secret123", FirstName: "A", LastName: "B", Role: "PLAYER",
			})
			Expect(err).To(MatchError(internal.ErrPhoneTaken))
		})

		It("is reserved to the admin", func() {
			_, err := service.Create(ctx, president, member.CreateMemberDTO{
				Phone: "+221770001", Password: "secret123", FirstName: "A", LastName: "B", Role: "PLAYER",
			})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeForbidden))
		})

		It("rejects unknown roles", func() {
			_, err := service.Create(ctx, admin, member.CreateMemberDTO{
				Phone: "+221770002", Password: "secret123", FirstName: "A", LastName: "B", Role: "CAPTAIN",
			})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})
	})

	It("invites a member as a player with an audit entry", func() {
		res, err := service.Invite(ctx, admin, member.InviteMemberDTO{Phone: "+221770003"})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Member.Role).To(Equal("PLAYER"))

		log, err := service.AuditLog(ctx, president, res.Member.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(log).To(HaveLen(1))
		Expect(log[0].Action).To(Equal(member.AuditInvited))
		Expect(log[0].PerformedBy).NotTo(BeNil())
		Expect(log[0].PerformedBy.FirstName).To(Equal("admin"))
	})

	It("lets bureau members list and players only see themselves", func() {
		list, err := service.List(ctx, president, member.ListFilter{})
		Expect(err).NotTo(HaveOccurred())
		Expect(list).To(HaveLen(3))

		_, err = service.List(ctx, player, member.ListFilter{})
		Expect(err).To(HaveOccurred())

		me, err := service.Get(ctx, player, "player")
		Expect(err).NotTo(HaveOccurred())
		Expect(me.ID).To(Equal("player"))

		_, err = service.Get(ctx, player, "pres")
		Expect(err).To(HaveOccurred())
	})

	It("marks the profile completed", func() {
		m, err := service.CompleteProfile(ctx, player, member.CompleteProfileDTO{
			FirstName:       "Moussa",
			LastName:        "Fall",
			ProfilePhotoURL: "https://cdn.example/p.png",
			Neighborhood:    strp("Medina"),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(m.ProfileCompleted).To(BeTrue())
		Expect(*m.Neighborhood).To(Equal("Medina"))
	})

	Describe("suspension toggles", func() {
		It("suspends manually and clears the grace marker", func() {
			m, err := service.Update(ctx, admin, "player", member.UpdateMemberDTO{IsSuspended: boolp(true)})
			Expect(err).NotTo(HaveOccurred())
			Expect(m.IsSuspended).To(BeTrue())
			Expect(m.SuspendedAt).NotTo(BeNil())
			Expect(m.ReactivatedAt).To(BeNil())

			Expect(published.events).To(HaveLen(1))
			evt, ok := published.events[0].(*events.MemberSuspendedEvent)
			Expect(ok).To(BeTrue())
			Expect(evt.Automatic).To(BeFalse())
		})

		It("reactivates with a grace window", func() {
			now := time.Now()
			Expect(db.Model(&memberDatamodel.Member{}).Where("id = ?", "player").
				Updates(map[string]interface{}{"is_suspended": true, "suspended_at": now}).Error).To(Succeed())

			m, err := service.Update(ctx, admin, "player", member.UpdateMemberDTO{IsSuspended: boolp(false)})
			Expect(err).NotTo(HaveOccurred())
			Expect(m.IsSuspended).To(BeFalse())
			Expect(m.SuspendedAt).To(BeNil())
			Expect(m.ReactivatedAt).NotTo(BeNil())

			Expect(published.events).To(HaveLen(1))
			evt, ok := published.events[0].(*events.MemberReactivatedEvent)
			Expect(ok).To(BeTrue())
			Expect(evt.GraceEndsAt.Sub(evt.ReactivatedAt)).To(Equal(24 * time.Hour))

			log, err := service.AuditLog(ctx, admin, "player")
			Expect(err).NotTo(HaveOccurred())
			Expect(log[0].Action).To(Equal(member.AuditReactivated))
		})

		It("does nothing when the flag is unchanged", func() {
			_, err := service.Update(ctx, admin, "player", member.UpdateMemberDTO{IsSuspended: boolp(false)})
			Expect(err).NotTo(HaveOccurred())
			Expect(published.events).To(BeEmpty())
		})
	})

	It("records role changes", func() {
		m, err := service.Update(ctx, admin, "player", member.UpdateMemberDTO{Role: strp("treasurer")})
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Role).To(Equal("TREASURER"))

		log, err := service.AuditLog(ctx, admin, "player")
		Expect(err).NotTo(HaveOccurred())
		Expect(log).To(HaveLen(1))
		Expect(*log[0].Details).To(Equal("PLAYER -> TREASURER"))
	})

	Describe("Delete", func() {
		It("removes the member", func() {
			Expect(service.Delete(ctx, admin, "player")).To(Succeed())
			_, err := service.Get(ctx, admin, "player")
			Expect(err).To(MatchError(internal.ErrMemberNotFound))
		})

		It("refuses to delete the caller", func() {
			Expect(service.Delete(ctx, admin, "admin")).To(MatchError(internal.ErrSelfDelete))
		})

		It("reports unknown members", func() {
			Expect(service.Delete(ctx, admin, "ghost")).To(MatchError(internal.ErrMemberNotFound))
		})
	})
})
