package schema

import "sort"

const metaV1Namespace = "meta::v1"

// postProcess implements spec.md §4.6 "Post-processing": insert the shared
// KeyValue/KeyValueStringSlice common types and deterministically sort
// every action's principal/resource type lists.
func postProcess(doc Document) {
	insertKeyValueTypes(doc)
	sortActionTypeLists(doc)
}

func insertKeyValueTypes(doc Document) {
	ns := doc[metaV1Namespace]
	if ns.CommonTypes == nil {
		ns.CommonTypes = map[string]Type{}
	}
	ns.CommonTypes["KeyValue"] = record(map[string]Attribute{
		"key":   required(str()),
		"value": required(str()),
	})
	ns.CommonTypes["KeyValueStringSlice"] = record(map[string]Attribute{
		"key":   required(str()),
		"value": required(set(str())),
	})
	doc[metaV1Namespace] = ns
}

func sortActionTypeLists(doc Document) {
	for nsName, ns := range doc {
		for name, action := range ns.Actions {
			if action.AppliesTo == nil {
				continue
			}
			sort.Strings(action.AppliesTo.PrincipalTypes)
			sort.Strings(action.AppliesTo.ResourceTypes)
			ns.Actions[name] = action
		}
		doc[nsName] = ns
	}
}
