package contribution_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestContribution(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Contribution Suite")
}
