package querysql

import (
	"bytes"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sexpsql/internal/ir"
	"github.com/roach88/sexpsql/internal/queryir"
	"github.com/roach88/sexpsql/internal/testutil"
)

// placeholders renders the template's placeholders in marker order.
func placeholders(tmpl *queryir.Template) []string {
	out := make([]string, tmpl.Len())
	for i := range out {
		out[i] = tmpl.Param(i).String()
	}
	return out
}

func TestCompile_Statements(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		text   string
		params []string
	}{
		{
			name:   "select with identifier placeholder",
			src:    `[:select [name] :from people :where (= id $i1)]`,
			text:   "SELECT name FROM people WHERE id = %s",
			params: []string{"$i1"},
		},
		{
			name: "select star",
			src:  `[:select * :from people]`,
			text: "SELECT * FROM people",
		},
		{
			name: "compound identifiers and aliases",
			src:  `[:select [people:name (as age years)] :from people]`,
			text: "SELECT people.name, age AS years FROM people",
		},
		{
			name: "from list",
			src:  `[:select [name] :from [people pets]]`,
			text: "SELECT name FROM people, pets",
		},
		{
			name: "string literal",
			src:  `[:select * :from t :where (= name "it's")]`,
			text: "SELECT * FROM t WHERE name = 'it''s'",
		},
		{
			name: "float literal",
			src:  `[:select * :from t :where (= a -1.5)]`,
			text: "SELECT * FROM t WHERE a = -1.5",
		},
		{
			name: "quote forces scalar",
			src:  `[:select * :from t :where (= x (quote y))]`,
			text: "SELECT * FROM t WHERE x = 'y'",
		},
		{
			name: "limit literal",
			src:  `[:select * :from t :limit 10]`,
			text: "SELECT * FROM t LIMIT 10",
		},
		{
			name: "order by",
			src:  `[:select * :from t :order-by [(desc a) b]]`,
			text: "SELECT * FROM t ORDER BY a DESC, b",
		},
		{
			name:   "update",
			src:    `[:update people :set (= name $s1) :where (= id $s2)]`,
			text:   "UPDATE people SET name = %s WHERE id = %s",
			params: []string{"$s1", "$s2"},
		},
		{
			name: "delete",
			src:  `[:delete :from people :where (> age 60)]`,
			text: "DELETE FROM people WHERE age > 60",
		},
		{
			name: "drop table",
			src:  `[:drop-table :if-exists people]`,
			text: "DROP TABLE IF EXISTS people",
		},
		{
			name: "insert row",
			src:  `[:insert :into people [name id] :values ["a" 1]]`,
			text: "INSERT INTO people (name, id) VALUES ('a', 1)",
		},
		{
			name: "insert rows",
			src:  `[:insert :into people :values [["a" 1] ["b" 2]]]`,
			text: "INSERT INTO people VALUES ('a', 1), ('b', 2)",
		},
		{
			name:   "insert vector placeholder",
			src:    `[:insert :into people [name id] :values $v1]`,
			text:   "INSERT INTO people (name, id) VALUES %s",
			params: []string{"$v1"},
		},
		{
			name:   "placeholders inside row",
			src:    `[:insert :into $i1 [name] :values [$s2]]`,
			text:   "INSERT INTO %s (name) VALUES (%s)",
			params: []string{"$i1", "$s2"},
		},
		{
			name: "inline schema",
			src:  `[:create-table people ([name (id integer :primary-key)])]`,
			text: "CREATE TABLE people (name NONE, id INTEGER PRIMARY KEY)",
		},
		{
			name:   "schema placeholder",
			src:    `[:create-table $i1 $S2]`,
			text:   "CREATE TABLE %s (%s)",
			params: []string{"$i1", "$S2"},
		},
		{
			name:   "placeholder column name in inline schema",
			src:    `[:create-table people ([$i1 (id integer)])]`,
			text:   "CREATE TABLE people (%s NONE, id INTEGER)",
			params: []string{"$i1"},
		},
		{
			name: "subquery operand",
			src:  `[:select * :from t :where (= id [:select [max-id] :from m])]`,
			text: "SELECT * FROM t WHERE id = (SELECT max_id FROM m)",
		},
		{
			name: "percent literal escaped",
			src:  `[:select * :from t :where (= note "50% off")]`,
			text: "SELECT * FROM t WHERE note = '50%% off'",
		},
	}

	compiler := NewCompiler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := compiler.Compile(testutil.Expr(t, tt.src))
			require.NoError(t, err)

			assert.Equal(t, tt.text, tmpl.Text())
			want := tt.params
			if want == nil {
				want = []string{}
			}
			assert.Equal(t, want, placeholders(tmpl))
			assert.Equal(t, tmpl.Len(), queryir.CountMarkers(tmpl.Text()))
		})
	}
}

func TestCompile_Expressions(t *testing.T) {
	tests := []struct {
		name   string
		where  string
		text   string
		params []string
	}{
		{"between low first", `(<= $s1 $s2 $s3)`, "%s BETWEEN %s AND %s", []string{"$s2", "$s1", "$s3"}},
		{"between high first", `(>= $s1 $s2 $s3)`, "%s BETWEEN %s AND %s", []string{"$s2", "$s3", "$s1"}},
		{"two operand <=", `(<= a b)`, "a <= b", nil},
		{"two operand >=", `(>= a b)`, "a >= b", nil},
		{"unary minus", `(= y (- x))`, "y = -(x)", nil},
		{"binary minus", `(= y (- x 1))`, "y = x - 1", nil},
		{"nested forms join flat", `(and (= a 1) (= b 2))`, "a = 1 AND b = 2", nil},
		{"nested arithmetic", `(= age (+ age 1))`, "age = age + 1", nil},
		{"variadic and", `(and a b c)`, "a AND b AND c", nil},
		{"empty and", `(and)`, "1", nil},
		{"empty or", `(or)`, "0", nil},
		{"single and", `(and (= a 1))`, "a = 1", nil},
		{"not", `(not (= a 1))`, "NOT a = 1", nil},
		{"isnull", `(isnull a)`, "a ISNULL", nil},
		{"notnull", `(notnull a)`, "a NOTNULL", nil},
		{"in row", `(in id [1 2 3])`, "id IN (1, 2, 3)", nil},
		{"in placeholder", `(in id $v1)`, "id IN %s", []string{"$v1"}},
		{"not in subquery", `(not-in id [:select [id] :from banned])`, "id NOT IN (SELECT id FROM banned)", nil},
		{"modulo", `(= (% a 2) 0)`, "a %% 2 = 0", nil},
		{"like", `(like name $s1)`, "name LIKE %s", []string{"$s1"}},
		{"glob", `(glob name "a*")`, "name GLOB 'a*'", nil},
		{"nil operand", `(= a nil)`, "a = NULL", nil},
		{"empty list operand", `(= a ())`, "a = NULL", nil},
		{"funcall", `(= m (funcall max a b))`, "m = max(a, b)", nil},
		{"repeated placeholder", `(or (= a $s1) (= b $s1))`, "a = %s OR b = %s", []string{"$s1", "$s1"}},
	}

	compiler := NewCompiler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := compiler.Compile(testutil.Expr(t, `[:select * :from t :where `+tt.where+`]`))
			require.NoError(t, err)

			assert.Equal(t, "SELECT * FROM t WHERE "+tt.text, tmpl.Text())
			want := tt.params
			if want == nil {
				want = []string{}
			}
			assert.Equal(t, want, placeholders(tmpl))
		})
	}
}

func TestCompile_Funcall(t *testing.T) {
	tests := []struct {
		src  string
		text string
	}{
		{`[:select [(funcall count *)] :from t]`, "SELECT count(*) FROM t"},
		{`[:select [(funcall count :distinct name)] :from t]`, "SELECT count(DISTINCT name) FROM t"},
		{`[:select [(funcall lower name)] :from t]`, "SELECT lower(name) FROM t"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			tmpl, err := Compile(testutil.Expr(t, tt.src))
			require.NoError(t, err)
			assert.Equal(t, tt.text, tmpl.Text())
		})
	}
}

func TestCompile_BetweenOrderingsAgree(t *testing.T) {
	low, err := Compile(testutil.Expr(t, `[:select * :from t :where (<= a b c)]`))
	require.NoError(t, err)
	high, err := Compile(testutil.Expr(t, `[:select * :from t :where (>= c b a)]`))
	require.NoError(t, err)

	assert.Equal(t, "SELECT * FROM t WHERE b BETWEEN a AND c", low.Text())
	assert.Equal(t, low.Text(), high.Text())
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind ErrorKind
	}{
		{"between too many", `[:select * :from t :where (<= a b c d)]`, ErrWrongOperandCount},
		{"between too few", `[:select * :from t :where (>= a)]`, ErrWrongOperandCount},
		{"minus three", `[:select * :from t :where (= y (- a b c))]`, ErrWrongOperandCount},
		{"minus none", `[:select * :from t :where (= y (-))]`, ErrWrongOperandCount},
		{"not two", `[:select * :from t :where (not a b)]`, ErrWrongOperandCount},
		{"in one", `[:select * :from t :where (in a)]`, ErrWrongOperandCount},
		{"funcall none", `[:select [(funcall)] :from t]`, ErrWrongOperandCount},
		{"quote two", `[:select * :from t :where (= a (quote b c))]`, ErrWrongOperandCount},
		{"scalar in identifier list", `[:select [$s1] :from t]`, ErrInvalidParameterKind},
		{"scalar as values", `[:insert :into t :values $s1]`, ErrInvalidParameterKind},
		{"scalar as in set", `[:select * :from t :where (in id $s1)]`, ErrInvalidParameterKind},
		{"scalar as schema column", `[:create-table t ([$s1])]`, ErrInvalidParameterKind},
		{"empty identifier list", `[:select [] :from t]`, ErrInvalidVector},
		{"empty values", `[:insert :into t :values []]`, ErrInvalidVector},
		{"missing values", `[:insert :into t :values]`, ErrInvalidVector},
		{"scalar values", `[:insert :into t :values 5]`, ErrInvalidVector},
		{"row in identifier list", `[:select [[a b]] :from t]`, ErrInvalidIdentifier},
		{"keyword identifier", `[:select [name :a] :from t]`, ErrInvalidIdentifier},
		{"string identifier", `[:select ["a"] :from t]`, ErrInvalidIdentifier},
		{"non-symbol operator", `[:select * :from t :where (1 2)]`, ErrInvalidIdentifier},
		{"unknown column type", `[:create-table t ([(id widget)])]`, ErrInvalidSchema},
		{"not a vector", `(= a b)`, ErrInvalidVector},
		{"empty statement", `[]`, ErrInvalidVector},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compiler := NewCompiler()
			tmpl, err := compiler.Compile(testutil.Expr(t, tt.src))
			require.Error(t, err)
			assert.Nil(t, tmpl)
			assert.Equal(t, tt.kind, KindOf(err), "got %v", err)
			assert.Zero(t, compiler.Cache().Len(), "failed compilations are not cached")
		})
	}
}

func TestCompile_OperandCountDetails(t *testing.T) {
	_, err := Compile(testutil.Expr(t, `[:select * :from t :where (<= a b c d)]`))
	require.Error(t, err)

	var qe *Error
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "<=", qe.Details["operator"])
	assert.Equal(t, "4", qe.Details["operands"])
	assert.Contains(t, qe.Error(), "WRONG_OPERAND_COUNT")
}

func TestCompile_CachesByStructure(t *testing.T) {
	compiler := NewCompiler()

	first, err := compiler.Compile(testutil.Expr(t, `[:select [name] :from people :where (= id $i1)]`))
	require.NoError(t, err)
	second, err := compiler.Compile(testutil.Expr(t, `[:select [name] :from people :where (= id $i1)]`))
	require.NoError(t, err)

	assert.Same(t, first, second)
	stats := compiler.Cache().Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)
}

func TestCompile_CacheKeyDistinguishesAtoms(t *testing.T) {
	compiler := NewCompiler()

	asInt, err := compiler.Compile(testutil.Expr(t, `[:select * :from t :where (= a 1)]`))
	require.NoError(t, err)
	asFloat, err := compiler.Compile(testutil.Expr(t, `[:select * :from t :where (= a 1.0)]`))
	require.NoError(t, err)
	asString, err := compiler.Compile(testutil.Expr(t, `[:select * :from t :where (= a "1")]`))
	require.NoError(t, err)

	assert.Equal(t, "SELECT * FROM t WHERE a = 1", asInt.Text())
	assert.Equal(t, "SELECT * FROM t WHERE a = 1.0", asFloat.Text())
	assert.Equal(t, "SELECT * FROM t WHERE a = '1'", asString.Text())
	assert.Equal(t, 3, compiler.Cache().Len())
}

func TestCompileWith_TypeMapIsPartOfKey(t *testing.T) {
	compiler := NewCompiler()
	e := testutil.Expr(t, `[:create-table t ([(id integer)])]`)

	def, err := compiler.CompileWith(nil, e)
	require.NoError(t, err)
	big, err := compiler.CompileWith(DefaultTypeMap().Merge(map[string]string{"integer": "BIGINT"}), e)
	require.NoError(t, err)

	assert.Equal(t, "CREATE TABLE t (id INTEGER)", def.Text())
	assert.Equal(t, "CREATE TABLE t (id BIGINT)", big.Text())
	assert.Equal(t, 2, compiler.Cache().Len())
}

func TestCompiler_SharedCache(t *testing.T) {
	cache := NewCache(0)
	a := NewCompiler(WithCache(cache))
	b := NewCompiler(WithCache(cache))

	e := testutil.Expr(t, `[:select * :from t]`)
	first, err := a.Compile(e)
	require.NoError(t, err)
	second, err := b.Compile(e)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Same(t, cache, a.Cache())
}

func TestCompiler_CacheKeepsInvalidUTF8Apart(t *testing.T) {
	compiler := NewCompiler()
	quoted := func(s string) ir.Expr {
		return ir.Vec(ir.Kw("select"), ir.L(ir.Sym("quote"), ir.String(s)))
	}

	first, err := compiler.Compile(quoted("\xff"))
	require.NoError(t, err)
	second, err := compiler.Compile(quoted("\xfe"))
	require.NoError(t, err)

	assert.Equal(t, "SELECT '\xff'", first.Text())
	assert.Equal(t, "SELECT '\xfe'", second.Text())
	assert.Equal(t, 2, compiler.Cache().Len())
}

func TestCompiler_LogsCacheActivity(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	compiler := NewCompiler(WithLogger(logger))

	e := testutil.Expr(t, `[:select * :from t]`)
	_, err := compiler.Compile(e)
	require.NoError(t, err)
	_, err = compiler.Compile(e)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `msg="template compiled"`)
	assert.Contains(t, out, `msg="template cache hit"`)
	assert.Contains(t, out, "params=0")
}

func TestCompiler_Concurrent(t *testing.T) {
	compiler := NewCompiler()
	srcs := []string{
		`[:select [name] :from people :where (= id $i1)]`,
		`[:select * :from t :where (<= $s1 $s2 $s3)]`,
		`[:insert :into people [name id] :values $v1]`,
	}
	exprs := testutil.Exprs(t, srcs...)

	var wg sync.WaitGroup
	errs := make(chan error, 50*len(exprs))
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, e := range exprs {
				if _, err := compiler.Compile(e); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	assert.Equal(t, len(exprs), compiler.Cache().Len())
}

func TestCompile_Golden(t *testing.T) {
	srcs := []string{
		`[:select [name] :from people :where (= id $i1)]`,
		`[:select [people:name (funcall count *)] :from people :where (and (<= 18 age 65) (in status $v2))]`,
		`[:insert :into $i1 [name id] :values [$s2 $s3]]`,
		`[:create-table people ([name (id integer :primary-key) (age integer :not-null)] (:unique [name]))]`,
		`[:update people :set (= age (+ age 1)) :where (>= 100 age 0)]`,
		`[:select * :from t :where (like note "%sale%")]`,
	}

	var buf bytes.Buffer
	for _, src := range srcs {
		tmpl, err := Compile(testutil.Expr(t, src))
		require.NoError(t, err, src)
		fmt.Fprintf(&buf, "%s\n-> %s\n-> %v\n\n", src, tmpl.Text(), placeholders(tmpl))
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "statements", buf.Bytes())
}

func TestCompile_PackageLevelDefault(t *testing.T) {
	sql, err := Prepare(testutil.Expr(t, `[:select [name] :from people :where (= id $i1)]`), ir.Sym("person-id"))
	require.NoError(t, err)
	assert.Equal(t, "SELECT name FROM people WHERE id = person_id", sql)
}
