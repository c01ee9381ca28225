package parser

import (
	"strconv"

	"tinydb/internal/dberr"
	"tinydb/internal/sql/lexer"
	"tinydb/internal/sql/types"
)

// Parser parses one statement from a token stream.
type Parser struct {
	lex     *lexer.Lexer
	current lexer.Token
}

// New creates a parser over sql and primes the first token.
func New(sql string) *Parser {
	p := &Parser{lex: lexer.New(sql)}
	p.advance()
	return p
}

// Parse parses a single statement and expects EOF immediately after.
func (p *Parser) Parse() (Statement, error) {
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if p.current.Type != lexer.TokenEOF {
		return nil, p.errorf("unexpected trailing token %s", p.current)
	}
	return stmt, nil
}

func (p *Parser) advance() {
	p.current = p.lex.NextToken()
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return dberr.Newf(dberr.SyntaxError, format, args...)
}

func (p *Parser) expect(t lexer.TokenType) (lexer.Token, error) {
	if p.current.Type != t {
		return lexer.Token{}, p.errorf("expected %s, got %s at line %d", t, p.current, p.current.Line)
	}
	tok := p.current
	p.advance()
	return tok, nil
}

func (p *Parser) parseStatement() (Statement, error) {
	switch p.current.Type {
	case lexer.TokenCreate:
		return p.parseCreateTable()
	case lexer.TokenInsert:
		return p.parseInsert()
	case lexer.TokenSelect:
		return p.parseSelect()
	case lexer.TokenDelete:
		return p.parseDelete()
	case lexer.TokenUpdate:
		return p.parseUpdate()
	default:
		return nil, p.errorf("unexpected token %s, expected a statement", p.current)
	}
}

func (p *Parser) parseCreateTable() (Statement, error) {
	p.advance() // CREATE
	if _, err := p.expect(lexer.TokenTable); err != nil {
		return nil, err
	}
	name, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenLeftParen); err != nil {
		return nil, err
	}

	var columns []ColumnDef
	for {
		col, err := p.parseColumnDef()
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)
		if p.current.Type == lexer.TokenComma {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.TokenRightParen); err != nil {
		return nil, err
	}
	return &CreateTableStmt{TableName: name.Literal, Columns: columns}, nil
}

func (p *Parser) parseColumnDef() (ColumnDef, error) {
	name, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return ColumnDef{}, err
	}

	col := ColumnDef{Name: name.Literal, Nullable: true}
	switch p.current.Type {
	case lexer.TokenInteger:
		col.Type = types.Integer
		p.advance()
	case lexer.TokenVarchar:
		col.Type = types.Varchar
		p.advance()
		if _, err := p.expect(lexer.TokenLeftParen); err != nil {
			return ColumnDef{}, err
		}
		lenTok, err := p.expect(lexer.TokenNumber)
		if err != nil {
			return ColumnDef{}, err
		}
		n, convErr := strconv.Atoi(lenTok.Literal)
		if convErr != nil {
			return ColumnDef{}, dberr.InvalidTextRepresentationError("INTEGER", lenTok.Literal)
		}
		col.MaxLength = n
		if _, err := p.expect(lexer.TokenRightParen); err != nil {
			return ColumnDef{}, err
		}
	default:
		return ColumnDef{}, p.errorf("expected a column type, got %s", p.current)
	}

	if p.current.Type == lexer.TokenNot {
		p.advance()
		if _, err := p.expect(lexer.TokenNull); err != nil {
			return ColumnDef{}, err
		}
		col.Nullable = false
	}
	return col, nil
}

func (p *Parser) parseInsert() (Statement, error) {
	p.advance() // INSERT
	if _, err := p.expect(lexer.TokenInto); err != nil {
		return nil, err
	}
	name, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenValues); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenLeftParen); err != nil {
		return nil, err
	}

	var values []Literal
	for {
		lit, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		values = append(values, lit)
		if p.current.Type == lexer.TokenComma {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.TokenRightParen); err != nil {
		return nil, err
	}
	return &InsertStmt{TableName: name.Literal, Values: values}, nil
}

func (p *Parser) parseSelect() (Statement, error) {
	p.advance() // SELECT
	if _, err := p.expect(lexer.TokenStar); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenFrom); err != nil {
		return nil, err
	}
	name, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return nil, err
	}
	where, err := p.parseOptionalWhere()
	if err != nil {
		return nil, err
	}
	return &SelectStmt{TableName: name.Literal, Where: where}, nil
}

func (p *Parser) parseDelete() (Statement, error) {
	p.advance() // DELETE
	if _, err := p.expect(lexer.TokenFrom); err != nil {
		return nil, err
	}
	name, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return nil, err
	}
	where, err := p.parseOptionalWhere()
	if err != nil {
		return nil, err
	}
	return &DeleteStmt{TableName: name.Literal, Where: where}, nil
}

func (p *Parser) parseUpdate() (Statement, error) {
	p.advance() // UPDATE
	name, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenSet); err != nil {
		return nil, err
	}
	setCol, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenEqual); err != nil {
		return nil, err
	}
	setVal, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}
	where, err := p.parseOptionalWhere()
	if err != nil {
		return nil, err
	}
	return &UpdateStmt{TableName: name.Literal, SetColumn: setCol.Literal, SetValue: setVal, Where: where}, nil
}

func (p *Parser) parseOptionalWhere() (*Predicate, error) {
	if p.current.Type != lexer.TokenWhere {
		return nil, nil
	}
	p.advance()
	col, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenEqual); err != nil {
		return nil, err
	}
	lit, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}
	return &Predicate{Column: col.Literal, Literal: lit}, nil
}

func (p *Parser) parseLiteral() (Literal, error) {
	switch p.current.Type {
	case lexer.TokenNumber:
		n, err := strconv.Atoi(p.current.Literal)
		if err != nil {
			return Literal{}, dberr.InvalidTextRepresentationError("INTEGER", p.current.Literal)
		}
		p.advance()
		return Literal{IsInt: true, Int: int32(n)}, nil
	case lexer.TokenString:
		s := p.current.Literal
		p.advance()
		return Literal{Str: s}, nil
	case lexer.TokenNull:
		p.advance()
		return Literal{IsNull: true}, nil
	default:
		return Literal{}, p.errorf("expected a literal, got %s", p.current)
	}
}
