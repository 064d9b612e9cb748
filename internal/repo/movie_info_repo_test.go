package repo

import (
	"context"
	"sort"
	"testing"

	"github.com/tbourn/go-movies-backend/internal/domain"
)

func seedMovieInfos(t *testing.T, s *MovieInfoStore) {
	t.Helper()
	in := []*domain.MovieInfo{
		{Name: "Batman Begins", Year: 2005, Cast: []string{"Christian Bale", "Michael Cane"}, ReleaseDate: domain.MustParseDate("2005-06-15")},
		{Name: "The Dark Knight", Year: 2008, Cast: []string{"Christian Bale", "HeathLedger"}, ReleaseDate: domain.MustParseDate("2008-07-18")},
		{Name: "Dark Knight Rises", Year: 2012, Cast: []string{"Christian Bale", "Tom Hardy"}, ReleaseDate: domain.MustParseDate("2012-07-20")},
	}
	if _, err := s.SaveAll(context.Background(), in); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestMovieInfosBeforeYear(t *testing.T) {
	db := newTestDB(t, &domain.MovieInfo{})
	s := NewMovieInfoStore(db)
	seedMovieInfos(t, s)

	got, err := MovieInfosBeforeYear(context.Background(), s, 2009)
	if err != nil {
		t.Fatalf("MovieInfosBeforeYear: %v", err)
	}
	years := make([]int, 0, len(got))
	for _, m := range got {
		years = append(years, m.Year)
	}
	sort.Ints(years)
	if len(years) != 2 || years[0] != 2005 || years[1] != 2008 {
		t.Fatalf("years = %v; want [2005 2008]", years)
	}

	got, err = MovieInfosBeforeYear(context.Background(), s, 2005)
	if err != nil || len(got) != 0 {
		t.Fatalf("strictly-before boundary: got %d rows, %v", len(got), err)
	}
}

func TestMovieInfosByName(t *testing.T) {
	db := newTestDB(t, &domain.MovieInfo{})
	s := NewMovieInfoStore(db)
	seedMovieInfos(t, s)

	got, err := MovieInfosByName(context.Background(), s, "The Dark Knight")
	if err != nil {
		t.Fatalf("MovieInfosByName: %v", err)
	}
	if len(got) != 1 || got[0].Year != 2008 {
		t.Fatalf("unexpected result: %+v", got)
	}

	got, err = MovieInfosByName(context.Background(), s, "the dark knight")
	if err != nil || len(got) != 0 {
		t.Fatalf("name match must be exact: got %d rows, %v", len(got), err)
	}
}
