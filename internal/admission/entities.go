package admission

import (
	"fmt"

	admissionv1 "k8s.io/api/admission/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/cedarval"
	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/identity"
	"github.com/cedar-policy/cedar-access-control-for-k8s/internal/naming"
)

// ActionTypeName is the Cedar type of every admission action entity.
const ActionTypeName = "k8s::admission::Action"

const (
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionConnect = "connect"
)

// BuildEntitiesAndRequest translates an AdmissionRequest into an entity set
// and a request (spec.md §4.1, §4.3). It implements the update/delete/
// connect branching of spec.md §8 scenario 4, fixing the oldObject
// dangling-reference bug described in spec.md §9: the new entity's
// oldObject attribute references the uid-keyed old entity actually present
// in the returned entity set, not the REST-path-keyed one.
func BuildEntitiesAndRequest(req *admissionv1.AdmissionRequest) (*cedarval.EntitySet, cedarval.Request, error) {
	if req == nil {
		return nil, cedarval.Request{}, fmt.Errorf("admission: nil AdmissionRequest")
	}

	entities := cedarval.NewEntitySet()

	principal, groups := identity.Translate(identity.FromUserInfo(req.UserInfo))
	entities.Add(principal)
	for _, g := range groups {
		entities.Add(g)
	}

	gvk := schema.GroupVersionKind{Group: req.Kind.Group, Version: req.Kind.Version, Kind: req.Kind.Kind}
	typeName := naming.TypeName(gvk)
	ctx := walkContext{Group: gvk.Group, Version: gvk.Version, Kind: gvk.Kind}
	path := naming.RESTPath(req.Resource.Group, req.Resource.Version, req.Resource.Resource, req.Namespace, req.Name, req.SubResource)

	action, err := actionFromOperation(req.Operation)
	if err != nil {
		return nil, cedarval.Request{}, err
	}

	var resourceUID cedarval.EntityUID
	switch req.Operation {
	case admissionv1.Delete:
		attrs, err := walkRaw(ctx, req.OldObject.Raw)
		if err != nil {
			return nil, cedarval.Request{}, fmt.Errorf("admission: walking old object: %w", err)
		}
		e := cedarval.Entity{UID: cedarval.EntityUID{Type: typeName, ID: path}, Attrs: attrs}
		entities.Add(e)
		resourceUID = e.UID

	case admissionv1.Update:
		oldAttrs, err := walkRaw(ctx, req.OldObject.Raw)
		if err != nil {
			return nil, cedarval.Request{}, fmt.Errorf("admission: walking old object: %w", err)
		}
		oldUID := cedarval.EntityUID{Type: typeName, ID: req.UID}
		entities.Add(cedarval.Entity{UID: oldUID, Attrs: oldAttrs})

		newAttrs, err := walkRaw(ctx, req.Object.Raw)
		if err != nil {
			return nil, cedarval.Request{}, fmt.Errorf("admission: walking new object: %w", err)
		}
		newAttrs["oldObject"] = cedarval.EntityRef(oldUID)
		newEntity := cedarval.Entity{UID: cedarval.EntityUID{Type: typeName, ID: path}, Attrs: newAttrs}
		entities.Add(newEntity)
		resourceUID = newEntity.UID

	default: // Create, Connect
		attrs, err := walkRaw(ctx, req.Object.Raw)
		if err != nil {
			return nil, cedarval.Request{}, fmt.Errorf("admission: walking object: %w", err)
		}
		e := cedarval.Entity{UID: cedarval.EntityUID{Type: typeName, ID: path}, Attrs: attrs}
		entities.Add(e)
		resourceUID = e.UID
	}

	out := cedarval.Request{
		Principal: principal.UID,
		Action:    cedarval.EntityUID{Type: ActionTypeName, ID: action},
		Resource:  resourceUID,
	}
	return entities, out, nil
}

func walkRaw(ctx walkContext, raw []byte) (map[string]cedarval.Value, error) {
	obj, err := DecodeObject(raw)
	if err != nil {
		return nil, err
	}
	return WalkObject(ctx, obj)
}

func actionFromOperation(op admissionv1.Operation) (string, error) {
	switch op {
	case admissionv1.Create:
		return ActionCreate, nil
	case admissionv1.Update:
		return ActionUpdate, nil
	case admissionv1.Delete:
		return ActionDelete, nil
	case admissionv1.Connect:
		return ActionConnect, nil
	default:
		return "", fmt.Errorf("admission: unrecognized operation %q", op)
	}
}
