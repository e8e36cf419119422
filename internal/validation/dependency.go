package validation

import (
	"strconv"
	"strings"

	"project-tracker/internal/models"
)

// maxTraversal bounds the nodes visited per declared dependency.
const maxTraversal = 100

// ParseDependencies splits a comma separated id list. Duplicates are kept.
func ParseDependencies(dep string) []string {
	var ids []string
	for _, part := range strings.Split(dep, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// canonicalID rewrites integer tokens such as "07" or "+7" as "7". Other ids are
// returned unchanged.
func canonicalID(id string) string {
	if n, err := strconv.Atoi(id); err == nil {
		return strconv.Itoa(n)
	}
	return id
}

// ValidateDependencies checks the structure of a dependency list. Dangling
// references are warnings, everything else blocks.
func ValidateDependencies(dep string, selfID models.TaskID, all []models.Task) Issues {
	ids := ParseDependencies(dep)
	if len(ids) == 0 {
		return nil
	}
	if len(ids) > maxDependencies {
		return Issues{errorf("dependency", "at most %d dependencies are allowed, got %d", maxDependencies, len(ids))}
	}

	known := make(map[string]bool, len(all))
	for _, t := range all {
		known[canonicalID(string(t.ID))] = true
	}

	self := canonicalID(string(selfID))
	var issues Issues
	for _, raw := range ids {
		if _, err := strconv.Atoi(raw); err != nil {
			issues = append(issues, errorf("dependency", "dependency id %q must be an integer", raw))
			continue
		}
		id := canonicalID(raw)
		if id == self {
			issues = append(issues, errorf("dependency", "task cannot depend on itself (ID: %s)", id))
			continue
		}
		if !known[id] {
			issues = append(issues, warnf("dependency", "dependency task %s not found", id))
		}
	}
	return issues
}

// DetectCircularDependency walks breadth first from every declared dependency,
// following each task's own dependencies, and reports whether taskID is reached.
func DetectCircularDependency(taskID models.TaskID, dep string, all []models.Task) bool {
	roots := ParseDependencies(dep)
	if len(roots) == 0 {
		return false
	}

	deps := make(map[string]string, len(all))
	for _, t := range all {
		deps[canonicalID(string(t.ID))] = t.Dependency
	}

	target := canonicalID(string(taskID))
	for _, root := range roots {
		visited := map[string]bool{}
		queue := []string{canonicalID(root)}
		for steps := 0; len(queue) > 0 && steps < maxTraversal; {
			current := queue[0]
			queue = queue[1:]

			if current == target {
				return true
			}
			if visited[current] {
				continue
			}
			visited[current] = true
			for _, next := range ParseDependencies(deps[current]) {
				queue = append(queue, canonicalID(next))
			}
			steps++
		}
	}
	return false
}
