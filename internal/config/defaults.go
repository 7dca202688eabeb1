package config

// DefaultBannedTerms is the denylist carried over from the original
// deployment. Matching is case-insensitive substring containment, which is a
// deliberately blunt instrument: a banned term embedded inside an unrelated
// word still trips it.
func DefaultBannedTerms() []string {
	return []string{
		"习近平", "毛泽东", "邓小平", "政府", "共产党", "民主",
		"六四", "天安门", "法轮功", "台独", "藏独", "疆独",
		"操", "妈", "傻逼", "草泥马", "他妈", "你妈", "日",
		"色情", "黄色", "成人", "赌博", "毒品",
	}
}

// DefaultRelationTypes are the preset edge labels offered before falling back
// to a custom string.
func DefaultRelationTypes() []string {
	return []string{"父子", "母子", "兄弟", "夫妻", "君臣", "义子", "部将", "盟友"}
}
