package db

// SchemaSQL defines the procwise tables. Text columns of the knowledge tables
// carry BM25 indexes: analyzer 0 on title, analyzer 1 on description.
const SchemaSQL = `
    DEFINE ANALYZER IF NOT EXISTS knowledge_analyzer TOKENIZERS class FILTERS lowercase, ascii, snowball(english);

    -- ==========================================================================
    -- BEST PRACTICES
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS best_practice SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS title ON best_practice TYPE string;
    DEFINE FIELD IF NOT EXISTS description ON best_practice TYPE string;
    DEFINE FIELD IF NOT EXISTS category ON best_practice TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS industry ON best_practice TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS process_type ON best_practice TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS complexity ON best_practice TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS tags ON best_practice TYPE array<string> DEFAULT [];
    DEFINE FIELD IF NOT EXISTS url ON best_practice TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS published_at ON best_practice TYPE option<datetime>;
    DEFINE FIELD IF NOT EXISTS confidence ON best_practice TYPE option<float>;
    DEFINE FIELD IF NOT EXISTS created ON best_practice TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS best_practice_title_ft ON best_practice FIELDS title FULLTEXT ANALYZER knowledge_analyzer BM25;
    DEFINE INDEX IF NOT EXISTS best_practice_desc_ft ON best_practice FIELDS description FULLTEXT ANALYZER knowledge_analyzer BM25;

    -- ==========================================================================
    -- COMPLIANCE REQUIREMENTS
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS compliance SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS title ON compliance TYPE string;
    DEFINE FIELD IF NOT EXISTS description ON compliance TYPE string;
    DEFINE FIELD IF NOT EXISTS category ON compliance TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS industry ON compliance TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS process_type ON compliance TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS tags ON compliance TYPE array<string> DEFAULT [];
    DEFINE FIELD IF NOT EXISTS url ON compliance TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS confidence ON compliance TYPE option<float>;
    DEFINE FIELD IF NOT EXISTS severity ON compliance TYPE string DEFAULT "medium";
    DEFINE FIELD IF NOT EXISTS region ON compliance TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS regulatory_body ON compliance TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS effective_date ON compliance TYPE option<datetime>;
    DEFINE FIELD IF NOT EXISTS compliance_deadline ON compliance TYPE option<datetime>;
    DEFINE FIELD IF NOT EXISTS required_actions ON compliance TYPE array<string> DEFAULT [];
    DEFINE FIELD IF NOT EXISTS penalties ON compliance TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS references ON compliance TYPE array<string> DEFAULT [];
    DEFINE FIELD IF NOT EXISTS created ON compliance TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS compliance_title_ft ON compliance FIELDS title FULLTEXT ANALYZER knowledge_analyzer BM25;
    DEFINE INDEX IF NOT EXISTS compliance_desc_ft ON compliance FIELDS description FULLTEXT ANALYZER knowledge_analyzer BM25;
    DEFINE INDEX IF NOT EXISTS compliance_industry ON compliance FIELDS industry;

    -- ==========================================================================
    -- BENCHMARKS
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS benchmark SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS title ON benchmark TYPE string;
    DEFINE FIELD IF NOT EXISTS description ON benchmark TYPE string;
    DEFINE FIELD IF NOT EXISTS category ON benchmark TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS industry ON benchmark TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS process_type ON benchmark TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS tags ON benchmark TYPE array<string> DEFAULT [];
    DEFINE FIELD IF NOT EXISTS url ON benchmark TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS confidence ON benchmark TYPE option<float>;
    DEFINE FIELD IF NOT EXISTS metric_unit ON benchmark TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS benchmark_values ON benchmark TYPE object FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS sample_size ON benchmark TYPE option<int>;
    DEFINE FIELD IF NOT EXISTS year ON benchmark TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS company_size ON benchmark TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS region ON benchmark TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS origin ON benchmark TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS methodology ON benchmark TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS created ON benchmark TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS benchmark_title_ft ON benchmark FIELDS title FULLTEXT ANALYZER knowledge_analyzer BM25;
    DEFINE INDEX IF NOT EXISTS benchmark_desc_ft ON benchmark FIELDS description FULLTEXT ANALYZER knowledge_analyzer BM25;

    -- ==========================================================================
    -- RESEARCH CACHE
    -- ==========================================================================
    -- Expired entries stay in place; readers skip them.
    DEFINE TABLE IF NOT EXISTS research_cache SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS query ON research_cache TYPE string;
    DEFINE FIELD IF NOT EXISTS domain ON research_cache TYPE string;
    DEFINE FIELD IF NOT EXISTS url ON research_cache TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS title ON research_cache TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS content ON research_cache TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS relevance_score ON research_cache TYPE float ASSERT $value >= 0 AND $value <= 1;
    DEFINE FIELD IF NOT EXISTS source ON research_cache TYPE string;
    DEFINE FIELD IF NOT EXISTS created_at ON research_cache TYPE datetime;
    DEFINE FIELD IF NOT EXISTS expires_at ON research_cache TYPE datetime;

    DEFINE INDEX IF NOT EXISTS research_lookup ON research_cache FIELDS domain, query;
    DEFINE INDEX IF NOT EXISTS research_expiry ON research_cache FIELDS expires_at;

    -- ==========================================================================
    -- PROCESS TEMPLATES
    -- ==========================================================================
    -- The template document is nested and evolves with the model; keep it schemaless.
    DEFINE TABLE IF NOT EXISTS process_template SCHEMALESS;
    DEFINE FIELD IF NOT EXISTS owner_id ON process_template TYPE string;
    DEFINE FIELD IF NOT EXISTS updated_at ON process_template TYPE datetime;
    DEFINE INDEX IF NOT EXISTS process_template_owner ON process_template FIELDS owner_id;
`
