package contribution_test

import (
	"time"

	"github.com/frahmantamala/club-management/internal/auth"
	"github.com/frahmantamala/club-management/internal/contribution"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func tagged(memberID, contributionID string, amount int64, year, month int) *contribution.Payment {
	return &contribution.Payment{
		ID:             memberID + "-" + time.Month(month).String(),
		MemberID:       memberID,
		ContributionID: contributionID,
		Amount:         amount,
		PeriodYear:     &year,
		PeriodMonth:    &month,
	}
}

var _ = Describe("Arrears", func() {
	var (
		monthly = &contribution.Contribution{ID: "monthly", Type: contribution.TypeMonthly, CreatedAt: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)}
		march   = contribution.Period{Year: 2024, Month: 3}
		alice   = &contribution.Standing{ID: "alice", FirstName: "Alice", LastName: "Diallo", Role: auth.RolePlayer}
		bob     = &contribution.Standing{ID: "bob", FirstName: "Bob", LastName: "Ba", Role: auth.RoleSupporter}
		admin   = &contribution.Standing{ID: "admin", FirstName: "Ad", LastName: "Min", Role: auth.RoleAdmin}
	)

	It("counts an underpaid month as paid", func() {
		payments := []*contribution.Payment{tagged("alice", monthly.ID, 3000, 2024, 3)}

		report := contribution.Arrears(march, []*contribution.Standing{alice, bob}, payments, monthly.ID)
		Expect(report.Total).To(Equal(1))
		Expect(report.Members[0].ID).To(Equal("bob"))
		Expect(report.PeriodYear).To(Equal(2024))
		Expect(report.PeriodMonth).To(Equal(3))
	})

	It("ignores payments for another period or contribution", func() {
		payments := []*contribution.Payment{
			tagged("alice", monthly.ID, 5000, 2024, 2),
			tagged("alice", "project", 5000, 2024, 3),
		}
		report := contribution.Arrears(march, []*contribution.Standing{alice}, payments, monthly.ID)
		Expect(report.Total).To(Equal(1))
	})

	It("never lists admins", func() {
		report := contribution.Arrears(march, []*contribution.Standing{admin}, nil, monthly.ID)
		Expect(report.Members).To(BeEmpty())
		Expect(report.Total).To(BeZero())
	})

	It("sorts debtors by name", func() {
		report := contribution.Arrears(march, []*contribution.Standing{alice, bob}, nil, monthly.ID)
		Expect(report.Members[0].LastName).To(Equal("Ba"))
		Expect(report.Members[1].LastName).To(Equal("Diallo"))
	})

	Describe("UnpaidMonths", func() {
		now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

		It("starts at the member's creation month", func() {
			m := &contribution.Standing{ID: "m", Role: auth.RolePlayer, CreatedAt: time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)}
			payments := []*contribution.Payment{tagged("m", monthly.ID, 3000, 2024, 2)}

			unpaid := contribution.UnpaidMonths(m, monthly, payments, now, time.UTC, 12)
			Expect(unpaid).To(Equal([]contribution.Period{{Year: 2024, Month: 1}, {Year: 2024, Month: 3}}))
		})

		It("starts no earlier than the monthly contribution", func() {
			late := &contribution.Contribution{ID: "monthly", Type: contribution.TypeMonthly, CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}
			m := &contribution.Standing{ID: "m", CreatedAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}

			unpaid := contribution.UnpaidMonths(m, late, nil, now, time.UTC, 12)
			Expect(unpaid).To(Equal([]contribution.Period{{Year: 2024, Month: 3}}))
		})

		It("is bounded by the lookback window", func() {
			m := &contribution.Standing{ID: "m", CreatedAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}

			unpaid := contribution.UnpaidMonths(m, monthly, nil, now, time.UTC, 12)
			Expect(unpaid).To(HaveLen(12))
			Expect(unpaid[0]).To(Equal(contribution.Period{Year: 2023, Month: 4}))
			Expect(unpaid[11]).To(Equal(contribution.Period{Year: 2024, Month: 3}))
		})

		It("is empty once every month has a payment", func() {
			m := &contribution.Standing{ID: "m", CreatedAt: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)}
			payments := []*contribution.Payment{tagged("m", monthly.ID, 100, 2024, 3)}
			Expect(contribution.UnpaidMonths(m, monthly, payments, now, time.UTC, 12)).To(BeEmpty())
		})
	})

	Describe("AuthoritativeMonthly", func() {
		It("picks the oldest monthly contribution", func() {
			older := &contribution.Contribution{ID: "b", Type: contribution.TypeMonthly, CreatedAt: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)}
			newer := &contribution.Contribution{ID: "a", Type: contribution.TypeMonthly, CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
			project := &contribution.Contribution{ID: "p", Type: contribution.TypeProject}
			Expect(contribution.AuthoritativeMonthly([]*contribution.Contribution{project, newer, older})).To(Equal(older))
			Expect(contribution.AuthoritativeMonthly([]*contribution.Contribution{project})).To(BeNil())
		})
	})

	Describe("Period", func() {
		It("rolls over the year", func() {
			Expect(contribution.Period{Year: 2023, Month: 12}.AddMonths(1)).To(Equal(contribution.Period{Year: 2024, Month: 1}))
			Expect(contribution.Period{Year: 2024, Month: 1}.AddMonths(-1)).To(Equal(contribution.Period{Year: 2023, Month: 12}))
		})

		It("labels in French", func() {
			Expect(contribution.Period{Year: 2024, Month: 3}.Label()).To(Equal("mars 2024"))
		})
	})
})
