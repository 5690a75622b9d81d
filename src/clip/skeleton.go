package clip

import "strings"

// BoneId addresses a bone inside its Skeleton.
type BoneId int32

const NoBone BoneId = -1

type Bone struct {
	Id       BoneId
	Name     string
	Parent   BoneId
	Children []BoneId
}

// Skeleton is an arena of bones. Bones are appended while the asset is
// built and never removed.
type Skeleton struct {
	bones  []Bone
	byName map[string]BoneId
}

func NewSkeleton() *Skeleton {
	return &Skeleton{byName: map[string]BoneId{}}
}

// AddBone appends a bone under parent (NoBone for a root) and returns its
// id. Lookup by name is case insensitive; the first bone with a given name
// wins.
func (s *Skeleton) AddBone(name string, parent BoneId) BoneId {
	id := BoneId(len(s.bones))
	s.bones = append(s.bones, Bone{Id: id, Name: name, Parent: NoBone})
	if key := strings.ToLower(name); len(key) > 0 {
		if _, ok := s.byName[key]; !ok {
			s.byName[key] = id
		}
	}
	if parent != NoBone {
		s.SetParent(id, parent)
	}
	return id
}

// SetParent links child under parent. Used when the source lists children
// before their parents.
func (s *Skeleton) SetParent(child, parent BoneId) {
	if !s.valid(child) || !s.valid(parent) || child == parent {
		return
	}
	c := &s.bones[child]
	if c.Parent == parent {
		return
	}
	if c.Parent != NoBone {
		p := &s.bones[c.Parent]
		for i, id := range p.Children {
			if id == child {
				p.Children = append(p.Children[:i], p.Children[i+1:]...)
				break
			}
		}
	}
	c.Parent = parent
	s.bones[parent].Children = append(s.bones[parent].Children, child)
}

func (s *Skeleton) valid(id BoneId) bool {
	return id >= 0 && int(id) < len(s.bones)
}

func (s *Skeleton) Len() int {
	if s == nil {
		return 0
	}
	return len(s.bones)
}

func (s *Skeleton) Bone(id BoneId) *Bone {
	if s == nil || !s.valid(id) {
		return nil
	}
	return &s.bones[id]
}

func (s *Skeleton) Lookup(name string) (BoneId, bool) {
	if s == nil {
		return NoBone, false
	}
	id, ok := s.byName[strings.ToLower(name)]
	if !ok {
		return NoBone, false
	}
	return id, true
}

// IsAncestor reports whether anc is id itself or one of its ancestors.
func (s *Skeleton) IsAncestor(anc, id BoneId) bool {
	if s == nil || !s.valid(anc) {
		return false
	}
	// The step limit guards against parent cycles in malformed sources.
	for steps := 0; s.valid(id) && steps <= len(s.bones); steps++ {
		if id == anc {
			return true
		}
		id = s.bones[id].Parent
	}
	return false
}

// Descendants lists every bone below id, depth first.
func (s *Skeleton) Descendants(id BoneId) (out []BoneId) {
	if s == nil || !s.valid(id) {
		return nil
	}
	seen := map[BoneId]bool{id: true}
	var walk func(BoneId)
	walk = func(b BoneId) {
		for _, c := range s.bones[b].Children {
			if seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
			walk(c)
		}
	}
	walk(id)
	return out
}
