package data

// Tables bundles the read-only content the world layer consults.
type Tables struct {
	Scenes      *SceneTable
	WorldLevels *WorldLevelTable
}

// Group returns the static config of a group, or nil.
func (t *Tables) Group(sceneID, groupID uint32) *GroupConfig {
	if t == nil || t.Scenes == nil {
		return nil
	}
	return t.Scenes.GetGroup(sceneID, groupID)
}

// WorldLevel returns the world-level row, or nil.
func (t *Tables) WorldLevel(level int32) *WorldLevel {
	if t == nil {
		return nil
	}
	return t.WorldLevels.Get(level)
}

// Scene returns the layout of a scene, or nil.
func (t *Tables) Scene(sceneID uint32) *SceneConfig {
	if t == nil || t.Scenes == nil {
		return nil
	}
	return t.Scenes.Scene(sceneID)
}
