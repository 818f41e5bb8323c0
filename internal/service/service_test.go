package service_test

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"testing"
	"time"

	"github.com/article-threads-api/internal/mocks"
	"github.com/article-threads-api/internal/models"
	"github.com/article-threads-api/internal/notify"
	"github.com/article-threads-api/internal/repository"
	"github.com/article-threads-api/internal/service"
	"github.com/article-threads-api/internal/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	articles *mocks.MockArticleRepository
	comments *mocks.MockCommentRepository
	notifier *mocks.MockNotifier
	files    *mocks.MockStorage
	svc      *service.Services
}

func newFixture() *fixture {
	f := &fixture{
		articles: mocks.NewMockArticleRepository(),
		comments: mocks.NewMockCommentRepository(),
		notifier: mocks.NewMockNotifier(),
		files:    mocks.NewMockStorage(),
	}
	repos := &repository.Repositories{Article: f.articles, Comment: f.comments}
	f.svc = service.NewServices(repos, f.notifier, f.files, zerolog.Nop())
	return f
}

func (f *fixture) addArticle(authorID string) *models.Article {
	a := &models.Article{
		ID:        uuid.NewString(),
		Title:     "Title",
		Content:   "Content",
		Tags:      []string{"go"},
		AuthorID:  authorID,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	f.articles.Articles[a.ID] = a
	return a
}

func (f *fixture) addComment(articleID string, parentID *string, at time.Time) *models.Comment {
	c := &models.Comment{
		ID:              uuid.NewString(),
		ArticleID:       articleID,
		AuthorID:        uuid.NewString(),
		ParentCommentID: parentID,
		Content:         "comment",
		CreatedAt:       at,
	}
	f.comments.Comments[c.ID] = c
	return c
}

func assertKind(t *testing.T, err error, kind service.ErrorKind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, service.KindOf(err), "unexpected error: %v", err)
}

func TestCreateComment_TopLevel(t *testing.T) {
	f := newFixture()
	owner := uuid.NewString()
	article := f.addArticle(owner)
	author := uuid.NewString()

	comment, err := f.svc.Comment.CreateComment(context.Background(), service.CommentInput{
		ArticleID: article.ID,
		AuthorID:  author,
		Content:   "  Nice post  ",
	})
	require.NoError(t, err)

	assert.Equal(t, "Nice post", comment.Content)
	assert.Nil(t, comment.ParentCommentID)
	assert.Contains(t, f.comments.Comments, comment.ID)

	require.Equal(t, 1, f.notifier.Count())
	ev := f.notifier.Events[0]
	assert.Equal(t, notify.TopicCommentCreated, ev.Topic)
	payload, ok := ev.Payload.(service.CommentCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, comment.ID, payload.CommentID)
	assert.Equal(t, article.ID, payload.ArticleID)
	assert.Equal(t, owner, payload.ArticleAuthorID)
	assert.Equal(t, author, payload.AuthorID)
	assert.Equal(t, "Nice post", payload.Content)
	assert.Nil(t, payload.ParentCommentID)
	assert.Equal(t, comment.CreatedAt, payload.CreatedAt)
}

func TestCreateComment_Reply(t *testing.T) {
	f := newFixture()
	article := f.addArticle(uuid.NewString())
	parent := f.addComment(article.ID, nil, time.Now())

	comment, err := f.svc.Comment.CreateComment(context.Background(), service.CommentInput{
		ArticleID:       article.ID,
		AuthorID:        uuid.NewString(),
		ParentCommentID: parent.ID,
		Content:         "reply",
	})
	require.NoError(t, err)
	require.NotNil(t, comment.ParentCommentID)
	assert.Equal(t, parent.ID, *comment.ParentCommentID)

	payload := f.notifier.Events[0].Payload.(service.CommentCreatedEvent)
	require.NotNil(t, payload.ParentCommentID)
	assert.Equal(t, parent.ID, *payload.ParentCommentID)
}

func TestCreateComment_NonCanonicalIDs(t *testing.T) {
	f := newFixture()
	article := f.addArticle(uuid.NewString())
	parent := f.addComment(article.ID, nil, time.Now())
	author := uuid.NewString()

	comment, err := f.svc.Comment.CreateComment(context.Background(), service.CommentInput{
		ArticleID:       strings.ToUpper(article.ID),
		AuthorID:        "urn:uuid:" + author,
		ParentCommentID: "{" + parent.ID + "}",
		Content:         "reply",
	})
	require.NoError(t, err)
	assert.Equal(t, article.ID, comment.ArticleID)
	assert.Equal(t, author, comment.AuthorID)
	require.NotNil(t, comment.ParentCommentID)
	assert.Equal(t, parent.ID, *comment.ParentCommentID)

	payload := f.notifier.Events[0].Payload.(service.CommentCreatedEvent)
	assert.Equal(t, article.ID, payload.ArticleID)
}

func TestCreateComment_CrossArticleParentRejected(t *testing.T) {
	f := newFixture()
	articleA := f.addArticle(uuid.NewString())
	articleB := f.addArticle(uuid.NewString())
	foreign := f.addComment(articleB.ID, nil, time.Now())

	_, err := f.svc.Comment.CreateComment(context.Background(), service.CommentInput{
		ArticleID:       articleA.ID,
		AuthorID:        uuid.NewString(),
		ParentCommentID: foreign.ID,
		Content:         "sneaky",
	})

	assertKind(t, err, service.KindValidation)
	assert.Equal(t, "Parent comment does not belong to the same article", err.Error())
	assert.Zero(t, f.comments.CreateCalls, "nothing is inserted")
	assert.Zero(t, f.notifier.Count(), "nothing is announced")
}

func TestCreateComment_Rejections(t *testing.T) {
	f := newFixture()
	article := f.addArticle(uuid.NewString())
	valid := service.CommentInput{ArticleID: article.ID, AuthorID: uuid.NewString(), Content: "hi"}

	tests := []struct {
		name    string
		mutate  func(in *service.CommentInput)
		kind    service.ErrorKind
		message string
	}{
		{"blank content", func(in *service.CommentInput) { in.Content = "   " }, service.KindValidation, "Content is required"},
		{"bad author", func(in *service.CommentInput) { in.AuthorID = "nope" }, service.KindValidation, "Valid authorId is required"},
		{"missing author", func(in *service.CommentInput) { in.AuthorID = "" }, service.KindValidation, "Valid authorId is required"},
		{"bad article", func(in *service.CommentInput) { in.ArticleID = "123" }, service.KindValidation, "Valid articleId is required"},
		{"bad parent", func(in *service.CommentInput) { in.ParentCommentID = "xyz" }, service.KindValidation, "Invalid parentCommentId"},
		{"unknown article", func(in *service.CommentInput) { in.ArticleID = uuid.NewString() }, service.KindNotFound, "Article not found"},
		{"unknown parent", func(in *service.CommentInput) { in.ParentCommentID = uuid.NewString() }, service.KindNotFound, "Parent comment not found"},
		{"content checked first", func(in *service.CommentInput) { in.Content = ""; in.AuthorID = "bad" }, service.KindValidation, "Content is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := f.svc.Comment.CreateComment(context.Background(), in)
			assertKind(t, err, tt.kind)
			assert.Equal(t, tt.message, err.Error())
		})
	}

	assert.Zero(t, f.comments.CreateCalls)
	assert.Zero(t, f.notifier.Count())
}

func TestCreateComment_PersistenceFailure(t *testing.T) {
	f := newFixture()
	article := f.addArticle(uuid.NewString())
	boom := errors.New("connection reset")
	f.comments.CreateErr = boom

	_, err := f.svc.Comment.CreateComment(context.Background(), service.CommentInput{
		ArticleID: article.ID, AuthorID: uuid.NewString(), Content: "hi",
	})
	assertKind(t, err, service.KindPersistence)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, f.notifier.Count())
}

func TestCreateComment_DroppedNotificationStillSucceeds(t *testing.T) {
	f := newFixture()
	f.notifier.Drop = true
	article := f.addArticle(uuid.NewString())

	comment, err := f.svc.Comment.CreateComment(context.Background(), service.CommentInput{
		ArticleID: article.ID, AuthorID: uuid.NewString(), Content: "hi",
	})
	require.NoError(t, err)
	assert.Contains(t, f.comments.Comments, comment.ID)
}

func TestListThread(t *testing.T) {
	f := newFixture()
	article := f.addArticle(uuid.NewString())
	base := time.Now().Add(-time.Hour)

	var roots []*models.Comment
	for i := 0; i < 5; i++ {
		roots = append(roots, f.addComment(article.ID, nil, base.Add(time.Duration(i)*time.Minute)))
	}
	reply := f.addComment(article.ID, &roots[4].ID, base.Add(10*time.Minute))
	f.addComment(uuid.NewString(), nil, base) // other article

	page, err := f.svc.Comment.ListThread(context.Background(), article.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, page.TotalTopLevel)
	require.Len(t, page.Comments, 2)
	assert.Equal(t, roots[4].ID, page.Comments[0].ID, "newest root first")
	require.Len(t, page.Comments[0].Replies, 1)
	assert.Equal(t, reply.ID, page.Comments[0].Replies[0].ID)

	page, err = f.svc.Comment.ListThread(context.Background(), article.ID, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Comments)
	assert.NotNil(t, page.Comments)
	assert.Equal(t, 5, page.TotalTopLevel)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 10, page.Limit)

	_, err = f.svc.Comment.ListThread(context.Background(), "bad", 1, 10)
	assertKind(t, err, service.KindValidation)
}

func TestListThread_OrphanSurfacesAsRoot(t *testing.T) {
	f := newFixture()
	article := f.addArticle(uuid.NewString())
	missing := uuid.NewString()
	orphan := f.addComment(article.ID, &missing, time.Now())

	page, err := f.svc.Comment.ListThread(context.Background(), article.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Comments, 1)
	assert.Equal(t, orphan.ID, page.Comments[0].ID)
}

func TestGetSubtree(t *testing.T) {
	f := newFixture()
	article := f.addArticle(uuid.NewString())
	now := time.Now()
	root := f.addComment(article.ID, nil, now)
	child := f.addComment(article.ID, &root.ID, now.Add(time.Second))
	grandchild := f.addComment(article.ID, &child.ID, now.Add(2*time.Second))
	f.addComment(article.ID, nil, now.Add(3*time.Second))

	node, err := f.svc.Comment.GetSubtree(context.Background(), article.ID, child.ID)
	require.NoError(t, err)
	assert.Equal(t, child.ID, node.ID)
	require.Len(t, node.Replies, 1)
	assert.Equal(t, grandchild.ID, node.Replies[0].ID)
}

func TestGetSubtree_NonCanonicalIDs(t *testing.T) {
	f := newFixture()
	article := f.addArticle(uuid.NewString())
	root := f.addComment(article.ID, nil, time.Now())
	f.addComment(article.ID, &root.ID, time.Now().Add(time.Second))

	node, err := f.svc.Comment.GetSubtree(context.Background(), "{"+article.ID+"}", strings.ToUpper(root.ID))
	require.NoError(t, err)
	assert.Equal(t, root.ID, node.ID)
	assert.Len(t, node.Replies, 1)

	page, err := f.svc.Comment.ListThread(context.Background(), strings.ToUpper(article.ID), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalTopLevel)
}

func TestGetSubtree_NotFound(t *testing.T) {
	f := newFixture()
	article := f.addArticle(uuid.NewString())
	other := f.addArticle(uuid.NewString())
	foreign := f.addComment(other.ID, nil, time.Now())

	_, err := f.svc.Comment.GetSubtree(context.Background(), article.ID, foreign.ID)
	assertKind(t, err, service.KindNotFound)

	_, err = f.svc.Comment.GetSubtree(context.Background(), article.ID, uuid.NewString())
	assertKind(t, err, service.KindNotFound)

	_, err = f.svc.Comment.GetSubtree(context.Background(), article.ID, "bad-id")
	assertKind(t, err, service.KindValidation)
}

func TestCreateArticle(t *testing.T) {
	f := newFixture()
	writer := &models.Principal{ID: uuid.NewString(), Role: models.RoleWriter}

	article, err := f.svc.Article.Create(context.Background(), writer, service.ArticleInput{
		Title:   " Hello ",
		Content: "Body",
		Tags:    []string{" go", "api", "", "go"},
		Image:   &multipart.FileHeader{Filename: "cover.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello", article.Title)
	assert.Equal(t, writer.ID, article.AuthorID)
	assert.Equal(t, []string{"go", "api"}, article.Tags)
	require.NotNil(t, article.Image)
	assert.Equal(t, "http://files.test/uploads/cover.png", *article.Image)
	assert.Contains(t, f.articles.Articles, article.ID)
}

func TestCreateArticle_Rejections(t *testing.T) {
	f := newFixture()
	writer := &models.Principal{ID: uuid.NewString(), Role: models.RoleWriter}

	_, err := f.svc.Article.Create(context.Background(), nil, service.ArticleInput{Title: "t", Content: "c"})
	assertKind(t, err, service.KindForbidden)

	_, err = f.svc.Article.Create(context.Background(), writer, service.ArticleInput{Title: " ", Content: "c"})
	assertKind(t, err, service.KindValidation)

	f.files.SaveFunc = func(context.Context, *multipart.FileHeader) (string, error) {
		return "", storage.ErrNotImage
	}
	_, err = f.svc.Article.Create(context.Background(), writer, service.ArticleInput{
		Title: "t", Content: "c", Image: &multipart.FileHeader{Filename: "a.pdf"},
	})
	assertKind(t, err, service.KindValidation)
	assert.Equal(t, "Only image uploads allowed", err.Error())
	assert.Empty(t, f.articles.Articles)
}

func TestCreateArticle_AuthorFromPrincipal(t *testing.T) {
	f := newFixture()
	id := uuid.NewString()

	article, err := f.svc.Article.Create(context.Background(),
		&models.Principal{ID: strings.ToUpper(id), Role: models.RoleWriter},
		service.ArticleInput{Title: "t", Content: "c"})
	require.NoError(t, err)
	assert.Equal(t, id, article.AuthorID)

	_, err = f.svc.Article.Create(context.Background(),
		&models.Principal{ID: "user-42", Role: models.RoleWriter},
		service.ArticleInput{Title: "t", Content: "c"})
	assertKind(t, err, service.KindValidation)
	assert.Len(t, f.articles.Articles, 1)
}

func TestArticle_NonCanonicalIDs(t *testing.T) {
	f := newFixture()
	w1 := uuid.NewString()
	article := f.addArticle(w1)
	upper := strings.ToUpper(article.ID)

	got, err := f.svc.Article.Get(context.Background(), upper)
	require.NoError(t, err)
	assert.Equal(t, article.ID, got.ID)

	listed, err := f.svc.Article.List(context.Background(), service.ArticleQuery{Author: strings.ToUpper(w1)})
	require.NoError(t, err)
	require.Len(t, listed, 1)

	updated, err := f.svc.Article.Update(context.Background(),
		&models.Principal{ID: w1, Role: models.RoleWriter}, upper,
		service.ArticleChanges{Title: strPtr("Edited")})
	require.NoError(t, err)
	assert.Equal(t, "Edited", updated.Title)

	err = f.svc.Article.Delete(context.Background(), &models.Principal{ID: uuid.NewString(), Role: models.RoleAdmin}, "{"+article.ID+"}")
	require.NoError(t, err)
	assert.Empty(t, f.articles.Articles)
}

func TestListArticles(t *testing.T) {
	f := newFixture()
	author := uuid.NewString()
	for i := 0; i < 12; i++ {
		a := f.addArticle(author)
		a.CreatedAt = time.Now().Add(time.Duration(i) * time.Minute)
	}
	tagged := f.addArticle(uuid.NewString())
	tagged.Tags = []string{"rust"}

	articles, err := f.svc.Article.List(context.Background(), service.ArticleQuery{})
	require.NoError(t, err)
	assert.Len(t, articles, service.DefaultArticleLimit)

	articles, err = f.svc.Article.List(context.Background(), service.ArticleQuery{Author: author, Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, articles, 2)

	articles, err = f.svc.Article.List(context.Background(), service.ArticleQuery{Tag: "rust"})
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, tagged.ID, articles[0].ID)

	articles, err = f.svc.Article.List(context.Background(), service.ArticleQuery{Page: 1 << 40, Limit: 100})
	require.NoError(t, err)
	assert.Empty(t, articles)

	_, err = f.svc.Article.List(context.Background(), service.ArticleQuery{Author: "bob"})
	assertKind(t, err, service.KindValidation)
}

func TestGetArticle(t *testing.T) {
	f := newFixture()
	article := f.addArticle(uuid.NewString())

	got, err := f.svc.Article.Get(context.Background(), article.ID)
	require.NoError(t, err)
	assert.Equal(t, article.ID, got.ID)

	_, err = f.svc.Article.Get(context.Background(), uuid.NewString())
	assertKind(t, err, service.KindNotFound)

	_, err = f.svc.Article.Get(context.Background(), "not-an-id")
	assertKind(t, err, service.KindValidation)
}

func strPtr(s string) *string { return &s }

func TestUpdateArticle_Authorization(t *testing.T) {
	w1 := uuid.NewString()

	tests := []struct {
		name      string
		principal *models.Principal
		wantKind  service.ErrorKind
	}{
		{"other writer", &models.Principal{ID: uuid.NewString(), Role: models.RoleWriter}, service.KindForbidden},
		{"owning writer", &models.Principal{ID: w1, Role: models.RoleWriter}, 0},
		{"editor", &models.Principal{ID: uuid.NewString(), Role: models.RoleEditor}, 0},
		{"admin", &models.Principal{ID: uuid.NewString(), Role: models.RoleAdmin}, 0},
		{"reader", &models.Principal{ID: w1, Role: models.RoleReader}, service.KindForbidden},
		{"no role", &models.Principal{ID: w1}, service.KindForbidden},
		{"anonymous", nil, service.KindForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			article := f.addArticle(w1)

			updated, err := f.svc.Article.Update(context.Background(), tt.principal, article.ID, service.ArticleChanges{
				Title: strPtr("New title"),
			})
			if tt.wantKind != 0 {
				assertKind(t, err, tt.wantKind)
				assert.Zero(t, f.articles.UpdateCalls)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "New title", updated.Title)
			assert.Equal(t, w1, updated.AuthorID, "author never changes")
		})
	}
}

func TestUpdateArticle_NotFoundBeforeForbidden(t *testing.T) {
	f := newFixture()
	reader := &models.Principal{ID: uuid.NewString(), Role: models.RoleReader}

	_, err := f.svc.Article.Update(context.Background(), reader, uuid.NewString(), service.ArticleChanges{Title: strPtr("x")})
	assertKind(t, err, service.KindNotFound)
}

func TestUpdateArticle_Payload(t *testing.T) {
	f := newFixture()
	editor := &models.Principal{ID: uuid.NewString(), Role: models.RoleEditor}
	article := f.addArticle(uuid.NewString())

	_, err := f.svc.Article.Update(context.Background(), editor, article.ID, service.ArticleChanges{})
	assertKind(t, err, service.KindValidation)

	_, err = f.svc.Article.Update(context.Background(), editor, article.ID, service.ArticleChanges{Content: strPtr("  ")})
	assertKind(t, err, service.KindValidation)

	tags := []string{"a", " b ", "a"}
	updated, err := f.svc.Article.Update(context.Background(), editor, article.ID, service.ArticleChanges{
		Tags:      &tags,
		ImageFile: &multipart.FileHeader{Filename: "new.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, updated.Tags)
	require.NotNil(t, updated.Image)
	assert.Equal(t, "http://files.test/uploads/new.png", *updated.Image)
	assert.Equal(t, "Title", updated.Title, "absent fields are untouched")
}

func TestDeleteArticle(t *testing.T) {
	f := newFixture()
	w1 := uuid.NewString()
	article := f.addArticle(w1)

	err := f.svc.Article.Delete(context.Background(), &models.Principal{ID: w1, Role: models.RoleWriter}, article.ID)
	assertKind(t, err, service.KindForbidden)

	err = f.svc.Article.Delete(context.Background(), &models.Principal{ID: uuid.NewString(), Role: models.RoleEditor}, article.ID)
	assertKind(t, err, service.KindForbidden)

	err = f.svc.Article.Delete(context.Background(), &models.Principal{ID: uuid.NewString(), Role: models.RoleAdmin}, article.ID)
	require.NoError(t, err)
	assert.NotContains(t, f.articles.Articles, article.ID)

	err = f.svc.Article.Delete(context.Background(), &models.Principal{ID: uuid.NewString(), Role: models.RoleAdmin}, article.ID)
	assertKind(t, err, service.KindNotFound)
}
