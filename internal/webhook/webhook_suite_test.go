package webhook_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	authorizationv1 "k8s.io/api/authorization/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/go-logr/logr"

	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/engine"
	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/metrics"
	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/policystore"
	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/webhook"
)

func TestWebhookSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "webhook suite")
}

var _ = Describe("Handler.Authorize", func() {
	var handler *webhook.Handler

	BeforeEach(func() {
		ps, err := engine.ParsePolicySet("suite", []byte(`permit(principal in k8s::Group::"devs", action, resource);`))
		Expect(err).NotTo(HaveOccurred())
		tiered := policystore.NewTieredPolicyStore(policystore.NewStaticStore("suite", ps))
		handler = webhook.NewHandler(tiered, nil, logr.Discard(), metrics.Recorder{})
	})

	It("allows a request from a permitted group", func() {
		review := &authorizationv1.SubjectAccessReview{
			Spec: authorizationv1.SubjectAccessReviewSpec{
				User:   "alice",
				Groups: []string{"system:authenticated", "devs"},
				ResourceAttributes: &authorizationv1.ResourceAttributes{
					Verb:      "list",
					Resource:  "pods",
					Namespace: "default",
				},
			},
		}

		result := handler.Authorize(context.Background(), review)

		Expect(result.Status.Allowed).To(BeTrue())
	})

	It("stays silent on a request from an ungranted group", func() {
		review := &authorizationv1.SubjectAccessReview{
			Spec: authorizationv1.SubjectAccessReviewSpec{
				User:   "mallory",
				Groups: []string{"system:authenticated"},
				ResourceAttributes: &authorizationv1.ResourceAttributes{
					Verb:      "list",
					Resource:  "pods",
					Namespace: "default",
				},
			},
		}

		result := handler.Authorize(context.Background(), review)

		Expect(result.Status.Allowed).To(BeFalse())
		Expect(result.Status.Denied).To(BeFalse())
	})

	It("bypasses evaluation for the absent-verb self-check", func() {
		review := &authorizationv1.SubjectAccessReview{
			ObjectMeta: metav1.ObjectMeta{Name: "absent-verb-probe"},
			Spec: authorizationv1.SubjectAccessReviewSpec{
				User: "alice",
				ResourceAttributes: &authorizationv1.ResourceAttributes{
					Verb: "",
				},
			},
		}

		result := handler.Authorize(context.Background(), review)

		Expect(result.Status.Allowed).To(BeFalse())
		Expect(result.Status.Denied).To(BeFalse())
	})
})
