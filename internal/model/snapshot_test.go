package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func graphFixture() Snapshot {
	return Snapshot{
		Nodes: []Node{
			SeedCenterNode(),
			{ID: "n1", Name: "李嗣源"},
			{ID: "n2", Name: "郭崇韬"},
		},
		Links: []Link{
			{Source: "li_cunxu", Target: "n1", Type: "义子"},
			{Source: "li_cunxu", Target: "n2", Type: "君臣"},
			{Source: "n1", Target: "n2", Type: "同僚"},
		},
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := graphFixture()
	s.Comments = []Comment{{ID: "c1", Author: "甲", Content: "one", Replies: []Comment{{ID: "r1", Content: "re"}}}}

	c := s.Clone()
	c.Nodes[0].Name = "changed"
	c.Links[0].Type = "changed"
	c.Comments[0].Replies[0].Content = "changed"

	assert.Equal(t, "李存勖", s.Nodes[0].Name)
	assert.Equal(t, "义子", s.Links[0].Type)
	assert.Equal(t, "re", s.Comments[0].Replies[0].Content)
}

func TestValidateRejectsBrokenGraphs(t *testing.T) {
	ok := graphFixture()
	assert.NoError(t, ok.Validate())

	dup := graphFixture()
	dup.Nodes = append(dup.Nodes, Node{ID: "n1", Name: "again"})
	assert.Error(t, dup.Validate())

	twoCenters := graphFixture()
	twoCenters.Nodes = append(twoCenters.Nodes, Node{ID: "x", Name: "x", IsCenter: true})
	assert.Error(t, twoCenters.Validate())

	noName := graphFixture()
	noName.Nodes[1].Name = ""
	assert.Error(t, noName.Validate())

	badLink := graphFixture()
	badLink.Links[0].Target = ""
	assert.Error(t, badLink.Validate())
}

func TestRemoveNodeCascadesLinks(t *testing.T) {
	s := graphFixture()

	assert.True(t, s.RemoveNode("n1"))
	assert.Len(t, s.Nodes, 2)
	// both links touching n1 are gone, the unrelated one stays
	assert.Len(t, s.Links, 1)
	assert.Equal(t, "n2", s.Links[0].Target)

	assert.False(t, s.RemoveNode("n1"))
}

func TestHasLinkBetweenIgnoresDirection(t *testing.T) {
	s := graphFixture()
	assert.True(t, s.HasLinkBetween("n1", "li_cunxu"))
	assert.True(t, s.HasLinkBetween("li_cunxu", "n1"))
	assert.False(t, s.HasLinkBetween("n1", "missing"))
}

func TestNormalizeBackfillsLegacyComments(t *testing.T) {
	s := Snapshot{Comments: []Comment{
		{Content: "old", Likes: -3, Replies: []Comment{{Content: "old reply"}}},
	}}
	s.Normalize("client-a")

	c := s.Comments[0]
	assert.NotEmpty(t, c.ID)
	assert.NotZero(t, c.CreatedAt)
	assert.Equal(t, 0, c.Likes)
	assert.Equal(t, "client-a", c.CreatedBy)
	assert.NotEmpty(t, c.Replies[0].ID)
	assert.Equal(t, "client-a", c.Replies[0].CreatedBy)
}

func TestNormalizeKeepsExistingOwner(t *testing.T) {
	s := Snapshot{Comments: []Comment{{ID: "c1", Content: "x", CreatedAt: 1, CreatedBy: "other"}}}
	s.Normalize("client-a")
	assert.Equal(t, "other", s.Comments[0].CreatedBy)
}

func TestFindCommentLocatesReplies(t *testing.T) {
	s := Snapshot{Comments: []Comment{
		{ID: "c1", Content: "top", Replies: []Comment{{ID: "r1", Content: "nested"}}},
	}}

	c, parent := s.FindComment("c1")
	assert.NotNil(t, c)
	assert.Nil(t, parent)

	r, parent := s.FindComment("r1")
	assert.NotNil(t, r)
	assert.Equal(t, "c1", parent.ID)

	missing, _ := s.FindComment("nope")
	assert.Nil(t, missing)
}

func TestRemoveCommentHandlesBothLevels(t *testing.T) {
	s := Snapshot{Comments: []Comment{
		{ID: "c1", Replies: []Comment{{ID: "r1"}, {ID: "r2"}}},
		{ID: "c2"},
	}}

	assert.True(t, s.RemoveComment("r1"))
	assert.Len(t, s.Comments[0].Replies, 1)
	assert.True(t, s.RemoveComment("c1"))
	assert.Len(t, s.Comments, 1)
	assert.False(t, s.RemoveComment("gone"))
}

func TestSortedComments(t *testing.T) {
	s := Snapshot{Comments: []Comment{
		{ID: "a", CreatedAt: 100, Likes: 1},
		{ID: "b", CreatedAt: 300, Likes: 5},
		{ID: "c", CreatedAt: 200, Likes: 5},
	}}

	byTime := s.SortedComments(SortTime)
	assert.Equal(t, []string{"b", "c", "a"}, []string{byTime[0].ID, byTime[1].ID, byTime[2].ID})

	// ties keep input order under hot sorting
	byHot := s.SortedComments(SortHot)
	assert.Equal(t, []string{"b", "c", "a"}, []string{byHot[0].ID, byHot[1].ID, byHot[2].ID})

	// original slice untouched
	assert.Equal(t, "a", s.Comments[0].ID)
}

func TestCommentCountIncludesReplies(t *testing.T) {
	s := Snapshot{Comments: []Comment{
		{ID: "c1", Replies: []Comment{{ID: "r1"}, {ID: "r2"}}},
		{ID: "c2"},
	}}
	assert.Equal(t, 4, s.CommentCount())
}

func TestSeedCenterNode(t *testing.T) {
	n := SeedCenterNode()
	assert.Equal(t, "li_cunxu", n.ID)
	assert.True(t, n.IsCenter)
	assert.Equal(t, "李存勖", n.Name)
}
